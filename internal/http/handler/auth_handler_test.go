package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trackivity/web-bff/internal/backend"
	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/http/middleware"
	"github.com/trackivity/web-bff/internal/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCodec() *security.SessionCodec {
	return security.NewSessionCodec("trackivity-bff", "trackivity-web", testSecret)
}

func newAuthHandler(t *testing.T, backendHandler http.HandlerFunc) *AuthHandler {
	t.Helper()
	srv := httptest.NewServer(backendHandler)
	t.Cleanup(srv.Close)
	client := backend.NewClient(srv.URL, srv.Client(), testLogger())
	return NewAuthHandler(client, testCodec(), testLogger(), 7*24*time.Hour, 30*24*time.Hour, false)
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			return c
		}
	}
	return nil
}

func loginBackend(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"success": true,
			"data": {
				"user": {"id": 7, "student_id": "65010042", "email": "ada@example.edu", "first_name": "Ada", "last_name": "Lovelace"},
				"token": "opaque-backend-token",
				"expires_at": "2025-06-08T09:00:00Z"
			}
		}`)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newAuthHandler(t, loginBackend(t))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.edu","password":"pw"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	c := sessionCookie(t, rr)
	if c == nil {
		t.Fatal("expected session cookie")
	}
	if !c.HttpOnly || c.Path != "/" {
		t.Fatalf("cookie attributes wrong: %+v", c)
	}
	if c.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("expected 7d max-age, got %d", c.MaxAge)
	}

	claims, err := testCodec().Decode(c.Value)
	if err != nil {
		t.Fatalf("cookie not decodable by the session codec: %v", err)
	}
	if claims.User.ID != 7 || claims.RememberMe {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRememberMeExtendsCookie(t *testing.T) {
	h := newAuthHandler(t, loginBackend(t))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.edu","password":"pw","remember_me":true}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	c := sessionCookie(t, rr)
	if c == nil {
		t.Fatal("expected session cookie")
	}
	if c.MaxAge != int((30 * 24 * time.Hour).Seconds()) {
		t.Fatalf("expected 30d max-age with remember_me, got %d", c.MaxAge)
	}
	claims, err := testCodec().Decode(c.Value)
	if err != nil || !claims.RememberMe {
		t.Fatalf("remember flag not carried: %+v %v", claims, err)
	}
}

func TestLoginInvalidCredentialsNoCookie(t *testing.T) {
	h := newAuthHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"error":{"code":"UNAUTHORIZED","message":"bad credentials"}}`)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.edu","password":"wrong"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if sessionCookie(t, rr) != nil {
		t.Fatal("failed login must not set a cookie")
	}
	if !strings.Contains(rr.Body.String(), `"UNAUTHORIZED"`) {
		t.Fatalf("expected UNAUTHORIZED envelope, got %s", rr.Body.String())
	}
}

func TestLoginValidation(t *testing.T) {
	h := newAuthHandler(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("backend must not be called for invalid input")
	})

	for name, body := range map[string]string{
		"missing password": `{"email":"a@b.c"}`,
		"missing email":    `{"password":"pw"}`,
		"malformed json":   `{`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
			rr := httptest.NewRecorder()
			h.Login(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestLogoutAlwaysClearsAndSucceeds(t *testing.T) {
	h := newAuthHandler(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("logout must not call the backend")
	})

	t.Run("with session", func(t *testing.T) {
		token, err := testCodec().Encode(domain.SessionUser{ID: 7}, time.Hour, false)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: token})
		rr := httptest.NewRecorder()
		h.Logout(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		c := sessionCookie(t, rr)
		if c == nil || c.MaxAge >= 0 || c.Value != "" {
			t.Fatalf("expected clearing cookie, got %+v", c)
		}
	})

	t.Run("without session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		rr := httptest.NewRecorder()
		h.Logout(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("logout without a session must still succeed, got %d", rr.Code)
		}
		c := sessionCookie(t, rr)
		if c == nil || c.MaxAge >= 0 {
			t.Fatalf("expected clearing cookie, got %+v", c)
		}
	})
}

func TestRefreshKeepsCookieWhenBackendDown(t *testing.T) {
	client := backend.NewClient("http://127.0.0.1:1", nil, testLogger())
	h := NewAuthHandler(client, testCodec(), testLogger(), 7*24*time.Hour, 30*24*time.Hour, false)

	token, err := testCodec().Encode(domain.SessionUser{ID: 7}, time.Hour, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if sessionCookie(t, rr) != nil {
		t.Fatal("unreachable backend must not touch the session cookie")
	}
}

func TestRefreshClearsCookieOnRejection(t *testing.T) {
	h := newAuthHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"error":{"code":"UNAUTHORIZED","message":"expired"}}`)
	})

	token, err := testCodec().Encode(domain.SessionUser{ID: 7}, time.Hour, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	c := sessionCookie(t, rr)
	if c == nil || c.MaxAge >= 0 {
		t.Fatalf("authoritative rejection must clear the cookie, got %+v", c)
	}
}

func TestRefreshReissuesCookie(t *testing.T) {
	h := newAuthHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"success": true,
			"data": {"user": {"id": 7, "student_id": "65010042", "email": "ada@example.edu", "first_name": "Ada", "last_name": "Lovelace"}}
		}`)
	})

	token, err := testCodec().Encode(domain.SessionUser{ID: 7}, time.Hour, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	c := sessionCookie(t, rr)
	if c == nil || c.Value == "" {
		t.Fatal("expected re-issued cookie")
	}
	if c.MaxAge != int((30 * 24 * time.Hour).Seconds()) {
		t.Fatalf("remember_me must survive refresh, got max-age %d", c.MaxAge)
	}
}

func TestRefreshWithoutSessionIs401(t *testing.T) {
	h := newAuthHandler(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("backend must not be called without a session")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRegisterConflictMapping(t *testing.T) {
	h := newAuthHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"success":false,"error":{"code":"CONFLICT","message":"Email is already in use"}}`)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(
		`{"student_id":"65010099","email":"taken@example.edu","password":"pw","first_name":"New","last_name":"Student"}`))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"EMAIL_EXISTS"`) {
		t.Fatalf("expected EMAIL_EXISTS code, got %s", rr.Body.String())
	}
}

func TestRegisterMissingFields(t *testing.T) {
	h := newAuthHandler(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("backend must not be called for incomplete input")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@b.c"}`))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "student_id") {
		t.Fatalf("expected missing fields detail, got %s", rr.Body.String())
	}
}

func TestMeReturnsContextIdentity(t *testing.T) {
	h := newAuthHandler(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("me must answer locally")
	})

	user := &domain.SessionUser{ID: 7, Email: "ada@example.edu"}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.IdentityContextKey, user))
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ada@example.edu"`) {
		t.Fatalf("identity not returned: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}
}
