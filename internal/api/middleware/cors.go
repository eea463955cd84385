package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/phrazzld/ensemble-api/internal/api/shared"
	"github.com/phrazzld/ensemble-api/internal/config"
)

// CORS applies a cross-origin policy. An empty origin list disables it.
type CORS struct {
	origins     map[string]bool
	allowAll    bool
	methods     string
	headers     string
	credentials bool
	maxAge      string
}

// NewCORS builds the policy from configuration. A "*" origin together with
// AllowCredentials fails with ErrInsecureCORS.
func NewCORS(cfg config.CORSConfig) (*CORS, error) {
	c := &CORS{
		origins:     make(map[string]bool, len(cfg.AllowedOrigins)),
		methods:     strings.Join(cfg.AllowedMethods, ", "),
		headers:     strings.Join(cfg.AllowedHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	if cfg.MaxAgeSeconds > 0 {
		c.maxAge = strconv.Itoa(cfg.MaxAgeSeconds)
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.allowAll = true
			continue
		}
		c.origins[strings.TrimSuffix(origin, "/")] = true
	}
	if c.allowAll && c.credentials {
		return nil, ErrInsecureCORS
	}
	return c, nil
}

func (c *CORS) allowed(origin string) bool {
	return c.allowAll || c.origins[origin]
}

// Handler returns the CORS middleware handler. Preflight requests from
// allowed origins are answered with 204 and never reach the router.
func (c *CORS) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		if !c.allowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		if c.allowAll {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if c.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Expose-Headers", shared.TraceIDHeader)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Add("Vary", "Access-Control-Request-Method")
			h.Set("Access-Control-Allow-Methods", c.methods)
			h.Set("Access-Control-Allow-Headers", c.headers)
			if c.maxAge != "" {
				h.Set("Access-Control-Max-Age", c.maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
