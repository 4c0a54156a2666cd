package proxy

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/trackivity/web-bff/internal/http/response"
	"github.com/trackivity/web-bff/internal/observability"
	"github.com/trackivity/web-bff/internal/security"
)

// hop-by-hop headers are meaningful only for a single transport link and
// must not be forwarded in either direction.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Gateway forwards any unmatched /api/* request to the backend origin. It
// is transparent: verbatim path and query, untranslated status codes, a
// single attempt per inbound request, no caching.
type Gateway struct {
	backend    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGateway accepts an empty backend URL; forwarding then fails per
// request with a 500 so the rest of the server can still come up.
func NewGateway(backendURL string, httpClient *http.Client, logger *slog.Logger) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	g := &Gateway{httpClient: httpClient, logger: logger}
	if backendURL != "" {
		if u, err := url.Parse(backendURL); err == nil && u.Scheme != "" && u.Host != "" {
			g.backend = u
		}
	}
	return g
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.backend == nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "backend url not configured", nil)
		return
	}

	target := *r.URL
	target.Scheme = g.backend.Scheme
	target.Host = g.backend.Host

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Body != nil {
		// Request bodies are buffered whole; payloads on this surface are
		// small JSON documents.
		buf, err := io.ReadAll(r.Body)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable request body", nil)
			return
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to build upstream request", nil)
		return
	}

	copyForwardHeaders(req.Header, r.Header)
	// Never forward the browser's raw cookie jar; the backend gets exactly
	// the session token it expects, nothing else.
	if token := security.GetCookie(r, security.SessionCookieName); token != "" {
		req.AddCookie(&http.Cookie{Name: security.BackendCookieName, Value: token})
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.WarnContext(r.Context(), "proxy forward failed", "method", r.Method, "path", r.URL.Path, "error", err)
		observability.RecordProxyForward(r.Context(), r.Method, http.StatusBadGateway)
		response.Error(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "backend unreachable", nil)
		return
	}
	defer resp.Body.Close()

	header := w.Header()
	for key, values := range resp.Header {
		if isHopByHop(key) {
			continue
		}
		header[key] = values
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.WarnContext(r.Context(), "proxy response stream interrupted", "path", r.URL.Path, "error", err)
	}
	observability.RecordProxyForward(r.Context(), r.Method, resp.StatusCode)
}

func copyForwardHeaders(dst, src http.Header) {
	for key, values := range src {
		if isHopByHop(key) || textproto.CanonicalMIMEHeaderKey(key) == "Cookie" {
			continue
		}
		dst[key] = values
	}
	// Host travels on the request struct, not the header map, so swapping
	// the target URL above already rewrites it.
}

func isHopByHop(key string) bool {
	canonical := textproto.CanonicalMIMEHeaderKey(key)
	for _, h := range hopByHopHeaders {
		if canonical == textproto.CanonicalMIMEHeaderKey(h) {
			return true
		}
	}
	return false
}
