package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary() *Summary {
	return &Summary{
		ChannelID:    "UC123",
		ChannelTitle: "Demo",
		Videos:       20,
		Comments:     134,
		NewComments:  7,
		TopCommenter: "alice",
		RefreshedAt:  "2024-06-01T12:00:00Z",
	}
}

func TestSend(t *testing.T) {
	var got Summary
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("X-Signature-256"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL, "").Send(context.Background(), testSummary()))
	assert.Equal(t, *testSummary(), got)
}

func TestSendSignsPayload(t *testing.T) {
	const secret = "hunter2"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
		assert.Equal(t, want, r.Header.Get("X-Signature-256"))
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL, secret).Send(context.Background(), testSummary()))
}

func TestSendNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, "").Send(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
