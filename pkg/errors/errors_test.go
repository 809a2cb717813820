package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     Code
	}{
		{"validation", Validation("bad tag %q", "#"), ErrValidation, CodeValidation},
		{"not found", NotFound("account %s", "alice"), ErrNotFound, CodeNotFound},
		{"rate limited", RateLimited(time.Minute, "slow down"), ErrRateLimited, CodeRateLimited},
		{"upstream with cause", Upstream(io.ErrUnexpectedEOF, "fetch tag"), ErrUpstream, CodeUpstream},
		{"upstream without cause", Upstream(nil, "fetch tag"), ErrUpstream, CodeUpstream},
		{"conflict", Conflict("album exists"), ErrConflict, CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("resolve: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.code, CodeOf(wrapped))
		})
	}
}

func TestUpstreamKeepsCause(t *testing.T) {
	err := Upstream(io.ErrUnexpectedEOF, "fetch tag")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "fetch tag: unexpected EOF", err.Error())
}

func TestRetryAfterOf(t *testing.T) {
	d, ok := RetryAfterOf(fmt.Errorf("wrapped: %w", RateLimited(30*time.Second, "429")))
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = RetryAfterOf(RateLimited(0, "429"))
	assert.False(t, ok)

	_, ok = RetryAfterOf(NotFound("x"))
	assert.False(t, ok)
}

func TestCodeOfPlainErrors(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(io.EOF))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("repo: %w", ErrNotFound)))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeValidation))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(CodeRateLimited))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(CodeUpstream))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}

func TestGetMessageAndDetails(t *testing.T) {
	err := Validation("limit out of range").WithDetails(map[string]string{"field": "limit"})
	assert.Equal(t, "limit out of range", GetMessage(err))
	assert.Equal(t, map[string]string{"field": "limit"}, DetailsOf(err))
	assert.Equal(t, "EOF", GetMessage(io.EOF))
}
