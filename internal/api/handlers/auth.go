package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/api/middleware"
	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/identity"
)

// CookieConfig controls the session cookie written on sign-in.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	authService *auth.Service
	exchanger   *identity.Exchanger
	cookie      CookieConfig
	logger      *slog.Logger
}

func NewAuthHandler(authService *auth.Service, exchanger *identity.Exchanger, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	if cookie.TTL <= 0 {
		cookie.TTL = auth.DefaultSessionTTL
	}
	return &AuthHandler{
		authService: authService,
		exchanger:   exchanger,
		cookie:      cookie,
		logger:      logger,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	req.Normalize()

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	_, err := h.authService.Signup(r.Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Email already registered"})
			return
		}
		h.logger.Error("signup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Signup failed"})
		return
	}

	writeJSON(w, http.StatusCreated, dto.SuccessResponse{
		Message: "Account created. Please check your email to verify your account.",
	})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or expired verification token"})
		return
	}

	alreadyVerified, err := h.authService.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidVerification) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or expired verification token"})
			return
		}
		h.logger.Error("verification failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Verification failed"})
		return
	}

	if alreadyVerified {
		writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Account already verified"})
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Email verified successfully. You can now log in."})
}

// ResendVerification answers the same way whether or not the email belongs
// to an unverified account.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	req.Normalize()

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	if err := h.authService.ResendVerification(r.Context(), req.Email); err != nil {
		h.logger.Error("resend verification failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to send verification email"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{
		Message: "If that account is awaiting verification, a new link has been sent.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	req.Normalize()

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user, session, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
		case errors.Is(err, auth.ErrEmailNotVerified):
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Please verify your email before logging in"})
		default:
			h.logger.Error("login failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Login failed"})
		}
		return
	}

	h.signIn(w, user, session)
}

// Session trades an external identity provider session for a local one.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	var req dto.SessionExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	user, session, err := h.exchanger.Exchange(r.Context(), req.SessionID)
	if err != nil {
		var xerr *identity.ExchangeError
		if errors.As(err, &xerr) {
			h.logger.Warn("session exchange rejected", "kind", xerr.Kind.String(), "error", err)
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to exchange session: " + xerr.Kind.String()})
			return
		}
		h.logger.Error("session exchange failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Session exchange failed"})
		return
	}

	h.signIn(w, user, session)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewUserDTO(middleware.GetUser(r.Context())))
}

// Logout always succeeds for the client; a revoke failure is only logged.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			h.logger.Error("failed to revoke session", "error", err)
		}
	}

	cookie := h.sessionCookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

func (h *AuthHandler) signIn(w http.ResponseWriter, user *models.User, session *models.Session) {
	http.SetCookie(w, h.sessionCookie(session.Token))

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		User:         dto.NewUserDTO(user),
		SessionToken: session.Token,
	})
}

// Cross-site frontends need SameSite=None, which browsers only accept on
// secure cookies.
func (h *AuthHandler) sessionCookie(value string) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite,
		MaxAge:   int(h.cookie.TTL.Seconds()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
