package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := &AppError{Message: ErrNoCredential.Error(), Err: ErrNoCredential}

	assert.Equal(t, "no YouTube credential stored", err.Error())
	assert.ErrorIs(t, err, ErrNoCredential)

	// Survives further wrapping.
	wrapped := fmt.Errorf("refresh: %w", err)
	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	assert.ErrorIs(t, wrapped, ErrNoCredential)
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	err := NewAPIError("quota exceeded", 403)
	assert.Equal(t, "quota exceeded", err.Error())
	assert.Equal(t, 403, err.Code)

	wrapped := fmt.Errorf("fetch channel: %w", err)
	var apiErr *APIError
	require.ErrorAs(t, wrapped, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
}

func TestErrorKindsAreDistinct(t *testing.T) {
	var appErr *AppError
	var apiErr *APIError

	assert.False(t, errors.As(NewAPIError("x", -1), &appErr))
	assert.False(t, errors.As(NewAppError("x"), &apiErr))
}
