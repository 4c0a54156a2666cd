// Package page decides what a browser page request gets: the page itself or
// a redirect. Guards return the decision as a value instead of acting on the
// response directly, so routing and tests can inspect it.
package page

import (
	"html/template"
	"net/http"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/http/middleware"
	"github.com/trackivity/web-bff/internal/observability"
)

type Kind int

const (
	Render Kind = iota
	Redirect
)

// Outcome is a guard's decision for one request.
type Outcome struct {
	Kind     Kind
	Page     string // page name to render
	Location string // redirect target
}

func render(page string) Outcome     { return Outcome{Kind: Render, Page: page} }
func redirect(target string) Outcome { return Outcome{Kind: Redirect, Location: target} }

// Guard maps the resolved identity (nil when anonymous) to an outcome.
type Guard func(user *domain.SessionUser) Outcome

// LoginGuard and RegisterGuard send already-authenticated users to the
// dashboard instead of showing them an auth form again.
func LoginGuard(user *domain.SessionUser) Outcome {
	if user != nil {
		return redirect("/dashboard")
	}
	return render("login")
}

func RegisterGuard(user *domain.SessionUser) Outcome {
	if user != nil {
		return redirect("/dashboard")
	}
	return render("register")
}

func DashboardGuard(user *domain.SessionUser) Outcome {
	if user == nil {
		return redirect("/login")
	}
	return render("dashboard")
}

// AdminGuard requires an admin identity of any level; the admin area has a
// separate login page so a signed-in student is not bounced to /login.
func AdminGuard(user *domain.SessionUser) Outcome {
	if user == nil || !user.IsAdmin() {
		return redirect("/admin/login")
	}
	return render("admin")
}

func AdminLoginGuard(user *domain.SessionUser) Outcome {
	if user != nil && user.IsAdmin() {
		return redirect("/admin")
	}
	return render("admin-login")
}

var shell = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Trackivity</title>
</head>
<body>
<div id="app" data-page="{{.Page}}"{{if .UserID}} data-user-id="{{.UserID}}"{{end}}{{if .BackendURL}} data-backend-url="{{.BackendURL}}"{{end}}></div>
<script src="/assets/app.js" defer></script>
</body>
</html>
`))

type shellData struct {
	Page       string
	UserID     uint
	BackendURL string
}

// Handler adapts a guard into an HTTP handler. The identity comes from
// OptionalIdentity, so anonymous requests flow through with user == nil.
// backendURL is the browser-facing backend base URL the bundle should call
// directly; empty means the bundle stays on the relayed /api routes.
func Handler(guard Guard, backendURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.IdentityFromContext(r.Context())
		outcome := guard(user)
		switch outcome.Kind {
		case Redirect:
			observability.RecordGateDecision(r.Context(), "page", "redirect")
			http.Redirect(w, r, outcome.Location, http.StatusFound)
		default:
			observability.RecordGateDecision(r.Context(), "page", "render")
			data := shellData{Page: outcome.Page, BackendURL: backendURL}
			if user != nil {
				data.UserID = user.ID
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_ = shell.Execute(w, data)
		}
	}
}
