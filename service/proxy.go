package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// ProxiedPaths are the backend paths exposed under /api/.
var ProxiedPaths = []string{"/track", "/health", "/weather", "/summary", "/shipments", "/kpis"}

// NewBackendProxy forwards /api/<path> to <backendURL>/<path> for the backend
// paths in ProxiedPaths. Anything else under /api/ is a 404.
func NewBackendProxy(backendURL string) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend url %q needs scheme and host", backendURL)
	}

	allowed := make(map[string]bool, len(ProxiedPaths))
	for _, p := range ProxiedPaths {
		allowed[p] = true
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("backend proxy failed",
				"path", r.URL.Path,
				"error", err,
				"request_id", r.Header.Get("X-Request-ID"),
			)
			WriteError(w, http.StatusBadGateway, "backend unavailable")
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")
		if !allowed[path] {
			http.NotFound(w, r)
			return
		}
		r2 := r.Clone(r.Context())
		r2.URL.Path = path
		r2.URL.RawPath = ""
		proxy.ServeHTTP(w, r2)
	}), nil
}
