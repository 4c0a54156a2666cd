package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trackivity/web-bff/internal/backend"
	"github.com/trackivity/web-bff/internal/http/middleware"
	"github.com/trackivity/web-bff/internal/http/response"
	"github.com/trackivity/web-bff/internal/observability"
	"github.com/trackivity/web-bff/internal/security"
)

type AuthHandler struct {
	backend     *backend.Client
	codec       *security.SessionCodec
	logger      *slog.Logger
	sessionTTL  time.Duration
	rememberTTL time.Duration
	secure      bool
}

func NewAuthHandler(client *backend.Client, codec *security.SessionCodec, logger *slog.Logger, sessionTTL, rememberTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		backend:     client,
		codec:       codec,
		logger:      logger,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		secure:      secureCookies,
	}
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type registerRequest struct {
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required", nil)
		return
	}

	result, err := h.backend.Login(r.Context(), backend.Credentials{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		observability.RecordAuthEvent(r.Context(), "login", "failure")
		h.writeBackendError(w, r, err)
		return
	}

	ttl := h.sessionTTL
	if req.RememberMe {
		ttl = h.rememberTTL
	}
	// Prefer the token the backend issued so its token id stays valid for
	// server-side revocation; mint locally only when the backend's format
	// is foreign to the codec.
	token := result.Token
	if _, err := h.codec.Decode(token); err != nil {
		token, err = h.codec.Encode(result.User, ttl, req.RememberMe)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "session encode failed", "error", err)
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to establish session", nil)
			return
		}
	}

	security.WriteSessionCookie(w, token, ttl, h.secure)
	observability.RecordAuthEvent(r.Context(), "login", "success")
	observability.Audit(h.logger, r, "user.login", slog.Uint64("user_id", uint64(result.User.ID)))
	response.JSON(w, r, http.StatusOK, map[string]any{"user": result.User})
}

// Logout clears the session cookie and reports success no matter what. A
// logout with no session is still a successful logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	security.ClearSessionCookie(w, h.secure)
	observability.RecordAuthEvent(r.Context(), "logout", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"logged_out": true})
}

// Refresh revalidates the session against the backend and re-issues the
// cookie. Only an authoritative rejection clears it; when the backend is
// unreachable the session survives and the caller gets a 502.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := security.GetCookie(r, security.SessionCookieName)
	if raw == "" {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "no session to refresh", nil)
		return
	}

	user, err := h.backend.Me(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrSessionRejected):
			security.ClearSessionCookie(w, h.secure)
			observability.RecordAuthEvent(r.Context(), "refresh", "rejected")
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "session no longer valid", nil)
		default:
			observability.RecordAuthEvent(r.Context(), "refresh", "unavailable")
			response.Error(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "could not confirm session", nil)
		}
		return
	}

	rememberMe := false
	if claims, err := h.codec.Decode(raw); err == nil {
		rememberMe = claims.RememberMe
	}
	ttl := h.sessionTTL
	if rememberMe {
		ttl = h.rememberTTL
	}
	token, err := h.codec.Encode(*user, ttl, rememberMe)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "session encode failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to refresh session", nil)
		return
	}
	security.WriteSessionCookie(w, token, ttl, h.secure)
	observability.RecordAuthEvent(r.Context(), "refresh", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body", nil)
		return
	}
	missing := missingRegisterFields(req)
	if len(missing) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing required fields", map[string]any{"fields": missing})
		return
	}

	user, err := h.backend.Register(r.Context(), backend.RegisterFields{
		StudentID: req.StudentID,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		observability.RecordAuthEvent(r.Context(), "register", "failure")
		h.writeBackendError(w, r, err)
		return
	}
	observability.RecordAuthEvent(r.Context(), "register", "success")
	observability.Audit(h.logger, r, "user.register", slog.Uint64("user_id", uint64(user.ID)))
	response.JSON(w, r, http.StatusCreated, map[string]any{"user": user})
}

// Me answers from the decoded session alone; the periodic monitor and the
// refresh endpoint are the places that consult the backend.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, backend.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
	case errors.Is(err, backend.ErrAccountDisabled):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "account is disabled", nil)
	case errors.Is(err, backend.ErrValidation):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "backend rejected the input", nil)
	case errors.Is(err, backend.ErrEmailExists):
		response.Error(w, r, http.StatusConflict, "EMAIL_EXISTS", "email is already registered", nil)
	case errors.Is(err, backend.ErrStudentIDExists):
		response.Error(w, r, http.StatusConflict, "STUDENT_ID_EXISTS", "student id is already registered", nil)
	case errors.Is(err, backend.ErrConflict):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "registration conflicts with an existing account", nil)
	case errors.Is(err, backend.ErrUnavailable):
		response.Error(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "backend unavailable", nil)
	default:
		h.logger.ErrorContext(r.Context(), "backend call failed", "error", err)
		response.Error(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "unexpected backend response", nil)
	}
}

func missingRegisterFields(req registerRequest) []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"student_id", req.StudentID},
		{"email", req.Email},
		{"password", req.Password},
		{"first_name", req.FirstName},
		{"last_name", req.LastName},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
