// Package notify posts refresh summaries to a generic HTTP webhook so a
// channel owner can get pinged when new comments arrive.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Summary is the payload sent after a refresh cycle.
type Summary struct {
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	Videos       int    `json:"videos"`
	Comments     int    `json:"comments"`
	NewComments  int    `json:"new_comments"`
	TopCommenter string `json:"top_commenter,omitempty"`
	RefreshedAt  string `json:"refreshed_at"`
}

// Webhook delivers summaries to one HTTP endpoint.
type Webhook struct {
	client *http.Client
	url    string
	secret string
}

// NewWebhook creates a webhook notifier. secret, when set, signs each
// payload with HMAC-SHA256 in the X-Signature-256 header.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
	}
}

// Send posts the summary.
func (w *Webhook) Send(ctx context.Context, s *Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "youtube-mate/1.0")

	if w.secret != "" {
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Signature-256", "sha256="+sig)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
