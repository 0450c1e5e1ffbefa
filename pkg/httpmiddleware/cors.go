package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig configures CORS.
type CORSConfig struct {
	// Origins allowed to call the API. Empty or "*" allows any origin.
	Origins []string `yaml:"origins"`
	// Headers clients may send. Defaults to Content-Type, x-api-key and
	// X-Request-ID.
	Headers []string `yaml:"headers"`
	// Credentials enables Access-Control-Allow-Credentials. The wildcard
	// origin is never sent with credentials.
	Credentials bool `yaml:"credentials"`
	// MaxAge for cached preflight results. Zero omits the header.
	MaxAge time.Duration `yaml:"max_age"`
}

var (
	corsMethods = "GET, POST, OPTIONS"
	corsExposed = "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After"
)

// CORS answers preflight requests and decorates cross-origin responses.
func CORS(cfg CORSConfig) Middleware {
	allowAny := len(cfg.Origins) == 0
	origins := make(map[string]string, len(cfg.Origins))
	for _, o := range cfg.Origins {
		if o == "*" {
			allowAny = true
			continue
		}
		origins[strings.ToLower(o)] = o
	}
	// With credentials the concrete origin is echoed instead of "*".
	echo := cfg.Credentials

	headers := cfg.Headers
	if len(headers) == 0 {
		headers = []string{"Content-Type", "x-api-key", RequestIDHeader}
	}
	allowHeaders := strings.Join(headers, ", ")
	var maxAge string
	if s := int(cfg.MaxAge / time.Second); s > 0 {
		maxAge = strconv.Itoa(s)
	}

	allowed := func(origin string) string {
		if o, ok := origins[strings.ToLower(origin)]; ok {
			return o
		}
		if !allowAny {
			return ""
		}
		if echo {
			return origin
		}
		return "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !allowAny || echo {
				h.Add("Vary", "Origin")
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allow := allowed(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allow != "" {
					h.Set("Access-Control-Allow-Origin", allow)
					h.Set("Access-Control-Allow-Methods", corsMethods)
					h.Set("Access-Control-Allow-Headers", allowHeaders)
					if cfg.Credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if maxAge != "" {
						h.Set("Access-Control-Max-Age", maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allow != "" {
				h.Set("Access-Control-Allow-Origin", allow)
				h.Set("Access-Control-Expose-Headers", corsExposed)
				if cfg.Credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
