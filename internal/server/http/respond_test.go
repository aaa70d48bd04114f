package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

func TestWriteError(t *testing.T) {
	s := &Server{logger: logging.NewNop()}

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", fmt.Errorf("wrap: %w", common.ErrOTPExpired), http.StatusUnprocessableEntity, `[{"field":"code","message":"OTP code has expired"}]`},
		{"unauthorized", common.ErrRefreshTokenRevoked, http.StatusUnauthorized, `{"message":"refresh token has been revoked"}`},
		{"internal", errors.New("db down"), http.StatusInternalServerError, `{"message":"internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			s.writeError(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "incorrect_password", outcome(common.ErrIncorrectPassword))
	assert.Equal(t, "error", outcome(errors.New("x")))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer ", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bearerToken(tt.header), tt.header)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", clientIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.2")
	assert.Equal(t, "203.0.113.2", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = ""
	assert.Equal(t, common.UnknownClient, clientIP(r))
	assert.Equal(t, common.UnknownClient, userAgent(r))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", logging.NewNop(), nil, nil, "k", NewMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}

func TestRun_BadAddress(t *testing.T) {
	s := NewServer("127.0.0.1:99999", logging.NewNop(), nil, nil, "k", NewMetrics())
	err := s.Run(context.Background())
	assert.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "closed"))
}
