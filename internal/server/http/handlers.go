package http

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// decodeValid reads a JSON body into req and validates its tags, writing the
// 422 response itself when something is wrong.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, []fieldError{{Field: "body", Message: "Invalid JSON body"}})
		return false
	}
	if err := validate.Struct(req); err != nil {
		if errs := validationErrors(err); len(errs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errs)
			return false
		}
		s.writeError(w, r, err)
		return false
	}
	return true
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	err := s.auth.SendOTP(r.Context(), req.Email, req.Type)
	s.metrics.Outcome("send_otp", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP code sent")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	user, err := s.auth.Register(r.Context(), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Code:        req.Code,
	})
	s.metrics.Outcome("register", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	pair, err := s.auth.Login(r.Context(), services.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: userAgent(r),
		IP:        clientIP(r),
	})
	s.metrics.Outcome("login", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	pair, err := s.auth.RefreshToken(r.Context(), services.RefreshInput{
		RefreshToken: req.RefreshToken,
		UserAgent:    userAgent(r),
		IP:           clientIP(r),
	})
	s.metrics.Outcome("refresh_token", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	err := s.auth.Logout(r.Context(), req.RefreshToken)
	s.metrics.Outcome("logout", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	err := s.auth.ForgotPassword(r.Context(), services.ForgotPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	s.metrics.Outcome("forgot_password", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	user, err := s.auth.Profile(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGoogleLink(w http.ResponseWriter, r *http.Request) {
	url := s.federation.AuthorizationURL(userAgent(r), clientIP(r))
	writeJSON(w, http.StatusOK, authorizationURLResponse{URL: url})
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		writeJSON(w, http.StatusUnprocessableEntity, []fieldError{{Field: "code", Message: "Required"}})
		return
	}

	pair, err := s.federation.Complete(r.Context(), code, q.Get("state"))
	s.metrics.Outcome("google_callback", outcome(err))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	upload, err := s.avatar.UploadURL(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upload)
}
