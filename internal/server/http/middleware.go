package http

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.AccessClaims {
	c, _ := ctx.Value(claimsKey{}).(*auth.AccessClaims)
	return c
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authMiddleware requires a valid access token and stores its claims in the
// request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "missing access token")
			return
		}

		claims, err := s.verifier.VerifyAccess(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(common.APIKeyHeaderName)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			writeMessage(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userAgent(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return common.UnknownClient
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return common.UnknownClient
}
