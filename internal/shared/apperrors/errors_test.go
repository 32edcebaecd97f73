package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("booking")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("too late")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOf_WrappedChain(t *testing.T) {
	inner := New(KindGone, "hold has expired")
	outer := fmt.Errorf("handling request: %w", inner)

	assert.Equal(t, KindGone, KindOf(outer))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "failed to get booking", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to get booking")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFrom(t *testing.T) {
	appErr := New(KindRateLimited, "too hot")
	assert.Same(t, appErr, From(appErr))
	assert.Same(t, appErr, From(fmt.Errorf("outer: %w", appErr)))

	converted := From(errors.New("plain"))
	assert.Equal(t, KindInternal, converted.Kind)
}

func TestWithDetails(t *testing.T) {
	err := Conflict("some units are not available").
		WithDetails(map[string]interface{}{"unavailable_units": []string{"A-1-1"}})

	assert.Contains(t, err.Details, "unavailable_units")
}

func TestRetryable(t *testing.T) {
	assert.True(t, New(KindRateLimited, "busy").Retryable())
	assert.False(t, Conflict("taken").Retryable())
	assert.False(t, New(KindGone, "expired").Retryable())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindGone, http.StatusGone},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindPaymentFailed, http.StatusPaymentRequired},
		{KindInvalidRequest, http.StatusBadRequest},
		{KindForbidden, http.StatusForbidden},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(New(tt.kind, "x")), string(tt.kind))
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
