package httpkit

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSOptions configures CORS. An AllowedOrigins entry of "*" matches any
// origin; the request origin is echoed back either way.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAgeSeconds    int
	// DebugHeader adds X-CORS-Debug with the match result.
	DebugHeader bool
}

type corsPolicy struct {
	origins     []string
	anyOrigin   bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
	credentials bool
	debug       bool
}

func newCORSPolicy(opt CORSOptions) corsPolicy {
	if len(opt.AllowedMethods) == 0 {
		opt.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(opt.AllowedHeaders) == 0 {
		opt.AllowedHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	}
	if opt.MaxAgeSeconds == 0 {
		opt.MaxAgeSeconds = 600
	}
	origins := trimAll(opt.AllowedOrigins)
	return corsPolicy{
		origins:     origins,
		anyOrigin:   slices.Contains(origins, "*"),
		methods:     strings.Join(opt.AllowedMethods, ", "),
		headers:     strings.Join(opt.AllowedHeaders, ", "),
		exposed:     strings.Join(trimAll(opt.ExposedHeaders), ", "),
		maxAge:      strconv.Itoa(opt.MaxAgeSeconds),
		credentials: opt.AllowCredentials,
		debug:       opt.DebugHeader,
	}
}

func (p corsPolicy) allows(origin string) bool {
	return origin != "" && (p.anyOrigin || slices.Contains(p.origins, origin))
}

func (p corsPolicy) apply(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	h.Set("Access-Control-Max-Age", p.maxAge)
	if p.exposed != "" {
		h.Set("Access-Control-Expose-Headers", p.exposed)
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// CORS answers preflight requests with 204 and decorates every response sent
// to an allowed origin.
func CORS(opt CORSOptions) func(http.Handler) http.Handler {
	policy := newCORSPolicy(opt)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := policy.allows(origin)

			if policy.debug {
				w.Header().Set("X-CORS-Debug", "origin="+origin+" allowed="+strconv.FormatBool(allowed))
			}
			if allowed {
				policy.apply(w.Header(), origin)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
