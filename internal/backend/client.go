package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/observability"
	"github.com/trackivity/web-bff/internal/security"
)

type Credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
}

type RegisterFields struct {
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginResult struct {
	User      domain.SessionUser
	Token     string
	ExpiresAt time.Time
}

// Client talks to the upstream backend that owns authoritative user and
// session state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient, logger: logger}
}

// wireUser mirrors the backend's loosely-specified identity payload. It is
// decoded exactly once, here, into the domain SessionUser shape: the role's
// permission list is flattened and the organization scope lifted to the top
// of the admin role for access checks.
type wireUser struct {
	ID        uint           `json:"id"`
	StudentID string         `json:"student_id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	AdminRole *wireAdminRole `json:"admin_role"`
}

type wireAdminRole struct {
	AdminLevel     string   `json:"admin_level"`
	OrganizationID *uint    `json:"organization_id"`
	Permissions    []string `json:"permissions"`
}

type wireEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *wireError      `json:"error"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wireLoginData struct {
	User      wireUser  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func mapUser(w wireUser) (domain.SessionUser, error) {
	user := domain.SessionUser{
		ID:        w.ID,
		StudentID: w.StudentID,
		Email:     w.Email,
		FirstName: w.FirstName,
		LastName:  w.LastName,
	}
	if w.AdminRole != nil {
		level, err := domain.ParseAdminLevel(w.AdminRole.AdminLevel)
		if err != nil {
			return domain.SessionUser{}, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		user.Admin = &domain.AdminRole{
			Level:          level,
			OrganizationID: w.AdminRole.OrganizationID,
			Permissions:    w.AdminRole.Permissions,
		}
	}
	return user, nil
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	resp, err := c.postJSON(ctx, "/auth/login", creds)
	if err != nil {
		observability.RecordBackendCall(ctx, "login", "unavailable")
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized:
		observability.RecordBackendCall(ctx, "login", "rejected")
		return nil, ErrInvalidCredentials
	case resp.StatusCode == http.StatusForbidden:
		observability.RecordBackendCall(ctx, "login", "rejected")
		return nil, ErrAccountDisabled
	case resp.StatusCode == http.StatusBadRequest:
		observability.RecordBackendCall(ctx, "login", "rejected")
		return nil, ErrValidation
	default:
		observability.RecordBackendCall(ctx, "login", "error")
		return nil, fmt.Errorf("%w: login status %d", ErrUpstream, resp.StatusCode)
	}

	var data wireLoginData
	if err := decodeEnvelope(resp.Body, &data); err != nil {
		observability.RecordBackendCall(ctx, "login", "error")
		return nil, err
	}
	user, err := mapUser(data.User)
	if err != nil {
		observability.RecordBackendCall(ctx, "login", "error")
		return nil, err
	}
	observability.RecordBackendCall(ctx, "login", "success")
	return &LoginResult{User: user, Token: data.Token, ExpiresAt: data.ExpiresAt}, nil
}

func (c *Client) Register(ctx context.Context, fields RegisterFields) (*domain.SessionUser, error) {
	resp, err := c.postJSON(ctx, "/auth/register", fields)
	if err != nil {
		observability.RecordBackendCall(ctx, "register", "unavailable")
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusConflict:
		observability.RecordBackendCall(ctx, "register", "conflict")
		return nil, classifyConflict(resp.Body)
	case resp.StatusCode == http.StatusBadRequest:
		observability.RecordBackendCall(ctx, "register", "rejected")
		return nil, ErrValidation
	default:
		observability.RecordBackendCall(ctx, "register", "error")
		return nil, fmt.Errorf("%w: register status %d", ErrUpstream, resp.StatusCode)
	}

	var data struct {
		User wireUser `json:"user"`
	}
	if err := decodeEnvelope(resp.Body, &data); err != nil {
		observability.RecordBackendCall(ctx, "register", "error")
		return nil, err
	}
	user, err := mapUser(data.User)
	if err != nil {
		observability.RecordBackendCall(ctx, "register", "error")
		return nil, err
	}
	observability.RecordBackendCall(ctx, "register", "success")
	return &user, nil
}

// Me revalidates a session token. A 401 or 403 is an authoritative
// rejection; everything else leaves the local session alone.
func (c *Client) Me(ctx context.Context, sessionToken string) (*domain.SessionUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build me request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: security.BackendCookieName, Value: sessionToken})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordBackendCall(ctx, "me", "unavailable")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		observability.RecordBackendCall(ctx, "me", "rejected")
		return nil, ErrSessionRejected
	default:
		observability.RecordBackendCall(ctx, "me", "error")
		return nil, fmt.Errorf("%w: me status %d", ErrUpstream, resp.StatusCode)
	}

	var data struct {
		User wireUser `json:"user"`
	}
	if err := decodeEnvelope(resp.Body, &data); err != nil {
		observability.RecordBackendCall(ctx, "me", "error")
		return nil, err
	}
	user, err := mapUser(data.User)
	if err != nil {
		observability.RecordBackendCall(ctx, "me", "error")
		return nil, err
	}
	observability.RecordBackendCall(ctx, "me", "success")
	return &user, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func decodeEnvelope(r io.Reader, out any) error {
	var env wireEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: empty data payload", ErrUpstream)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data payload: %w", ErrUpstream, err)
	}
	return nil
}

// classifyConflict decides which field the backend reported as duplicated.
// The backend exposes no structured code for this, so the error text is the
// only signal; when the wording matches neither field the generic conflict
// is returned rather than guessing.
func classifyConflict(r io.Reader) error {
	var env wireEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil || env.Error == nil {
		return ErrConflict
	}
	msg := strings.ToLower(env.Error.Message)
	switch {
	case strings.Contains(msg, "email"):
		return ErrEmailExists
	case strings.Contains(msg, "student"):
		return ErrStudentIDExists
	default:
		return ErrConflict
	}
}
