package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NewAppError(ErrCatalogMismatch, "catalog mismatch", New("price_1 missing"))
	wrapped := fmt.Errorf("handle event: %w", Wrap(base, "map catalog"))

	assert.Equal(t, ErrCatalogMismatch, CodeOf(wrapped))
	assert.Equal(t, "map catalog", MessageOf(wrapped))
	assert.True(t, Is(wrapped, base))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(New("boom")))
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), MessageOf(New("boom")))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrResolutionFailed, http.StatusInternalServerError},
		{ErrCatalogMismatch, http.StatusInternalServerError},
		{ErrUnavailable, http.StatusInternalServerError},
		{ErrNoCustomer, http.StatusNotFound},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}

func TestJSONHidesCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	err := NewAppError(ErrCheckoutFailed, "checkout initiation failed", New("card_declined: secret detail"))
	require.NoError(t, JSON(c, err))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "checkout initiation failed")
	assert.Contains(t, rec.Body.String(), ErrCheckoutFailed)
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestLogErrorAddsCode(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	LogError(logger, NewAppError(ErrResolutionFailed, "no profile", nil), "webhook failed", zap.String("event_id", "evt_1"))
	LogError(logger, nil, "ignored")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, ErrResolutionFailed, fields["error_code"])
	assert.Equal(t, "evt_1", fields["event_id"])
}
