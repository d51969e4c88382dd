package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("doctor", nil), http.StatusNotFound},
		{BadRequest("bad", nil), http.StatusBadRequest},
		{Unauthorized(nil), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{Conflict("taken"), http.StatusConflict},
		{Internal(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Error())
	}
}

func TestCodeOfWrapped(t *testing.T) {
	sentinel := Conflict("This slot is already taken.")
	wrapped := fmt.Errorf("book: %w", sentinel)

	assert.True(t, IsConflict(wrapped))
	assert.True(t, stderrors.Is(wrapped, sentinel))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "appointment not found", UserMessage(NotFound("appointment", nil)))
	assert.Equal(t, "internal server error", UserMessage(stderrors.New("pq: connection refused")))
	assert.Equal(t, "internal server error", UserMessage(Internal(stderrors.New("x"))))
}
