// Package http exposes the auth services over a chi router.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type AuthAPI interface {
	SendOTP(ctx context.Context, email string, purpose models.VerificationPurpose) error
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, in services.LoginInput) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, in services.RefreshInput) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, in services.ForgotPasswordInput) error
	Profile(ctx context.Context, userID int64) (*models.PublicUser, error)
}

type FederationAPI interface {
	AuthorizationURL(userAgent, ip string) string
	Complete(ctx context.Context, code, state string) (*services.TokenPair, error)
}

type AvatarAPI interface {
	UploadURL(ctx context.Context, userID int64) (*services.AvatarUpload, error)
}

type AccessVerifier interface {
	VerifyAccess(token string) (*auth.AccessClaims, error)
}

// Server serves the HTTP API. Federation and Avatar are optional; their
// routes are mounted only when set.
type Server struct {
	address    string
	auth       AuthAPI
	federation FederationAPI
	avatar     AvatarAPI
	verifier   AccessVerifier
	apiKey     string
	metrics    *Metrics
	logger     logging.Logger
}

type Option func(*Server)

func WithFederation(f FederationAPI) Option {
	return func(s *Server) { s.federation = f }
}

func WithAvatar(a AvatarAPI) Option {
	return func(s *Server) { s.avatar = a }
}

func NewServer(address string, l logging.Logger, a AuthAPI, v AccessVerifier, apiKey string, m *Metrics, opts ...Option) *Server {
	s := &Server{
		address:  address,
		auth:     a,
		verifier: v,
		apiKey:   apiKey,
		metrics:  m,
		logger:   l.With("module", "http_server"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.With(s.apiKeyMiddleware).Handle("/metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/otp", s.handleSendOTP)
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh-token", s.handleRefreshToken)
		r.Post("/logout", s.handleLogout)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.With(s.authMiddleware).Get("/me", s.handleMe)

		if s.federation != nil {
			r.Get("/google-link", s.handleGoogleLink)
			r.Get("/google/callback", s.handleGoogleCallback)
		}
	})

	if s.avatar != nil {
		r.With(s.authMiddleware).Post("/users/me/avatar", s.handleAvatarUpload)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
