package middleware

import (
	"net/http"
	"strings"
)

// Headers the booking page sends, and the ones it needs to read back: the
// request id for support and Location for a newly created session.
const (
	corsAllowHeaders  = "Authorization, Content-Type, X-Request-ID"
	corsAllowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsExposeHeaders = "X-Request-ID, Location"
	corsMaxAge        = "600"
)

// originPolicy decides which browser origins may call the session API.
// Entries are exact origins, "*", or a subdomain wildcard such as
// "https://*.clinics.example" for per-clinic booking pages.
type originPolicy struct {
	any      bool
	exact    map[string]struct{}
	wildcard []wildcardOrigin
}

type wildcardOrigin struct {
	scheme string // "https://"
	suffix string // ".clinics.example"
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: map[string]struct{}{}}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "":
		case origin == "*":
			p.any = true
		case strings.Contains(origin, "://*."):
			scheme, host, _ := strings.Cut(origin, "*")
			p.wildcard = append(p.wildcard, wildcardOrigin{scheme: scheme, suffix: host})
		default:
			p.exact[origin] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, w := range p.wildcard {
		if !strings.HasPrefix(origin, w.scheme) || !strings.HasSuffix(origin, w.suffix) {
			continue
		}
		sub := origin[len(w.scheme) : len(origin)-len(w.suffix)]
		if sub != "" && !strings.ContainsAny(sub, "/:") {
			return true
		}
	}
	return false
}

// CORS lets booking pages on the allowed origins call the session API.
// Preflights from other origins are refused with 403 rather than reaching
// the router.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			allowed := policy.allows(origin)
			if allowed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if !allowed {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
