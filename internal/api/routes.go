package api

import (
	"bufio"
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/api/handlers"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/apierr"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/cache"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/config"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/metrics"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/middleware"
	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/report"
)

// Deps carries everything the router needs; the composition root in
// internal/server builds them.
type Deps struct {
	Cache     cache.Cache
	Reports   *report.Service
	Hub       *handlers.Hub
	StartTime time.Time
}

// NewRouter builds the full HTTP surface with the middleware chain.
func NewRouter(deps Deps) *mux.Router {
	cfg := config.Load()

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverWithSentry)
	r.Use(middleware.SecurityHeaders)
	r.Use(instrument)

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	}
	r.Use(middleware.CORS(corsCfg))

	if cfg.EnableRateLimit {
		rl := middleware.NewRateLimiter(
			cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst,
			cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst,
		)
		r.Use(rl.Limit)
	}

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/health", handlers.Health).Methods("GET")
	apiRouter.HandleFunc("/status", handlers.Status(deps.Cache, deps.StartTime)).Methods("GET")

	// Report endpoints are compressed; payloads are repetitive JSON.
	reports := apiRouter.NewRoute().Subrouter()
	reports.Use(middleware.Compress, middleware.ETag)
	reports.HandleFunc("/accounts", handlers.GetAccounts(deps.Reports)).Methods("GET")
	reports.HandleFunc("/accounts/{customerID}/campaigns", handlers.GetCampaigns(deps.Reports)).Methods("GET")
	reports.HandleFunc("/accounts/{customerID}/summary", handlers.GetSummary(deps.Reports)).Methods("GET")

	ws := handlers.NewWebSocketHandler(deps.Hub)
	apiRouter.HandleFunc("/ws", ws.HandleWebSocket).Methods("GET")

	admin := apiRouter.PathPrefix("/admin").Subrouter()
	admin.Use(adminOnly(cfg.AdminAPIToken))
	cacheAdmin := handlers.NewCacheAdminHandler(deps.Cache, deps.Hub)
	admin.HandleFunc("/cache/stats", cacheAdmin.GetCacheStats).Methods("GET")
	admin.HandleFunc("/cache/keys", cacheAdmin.GetCacheKeys).Methods("GET")
	admin.HandleFunc("/cache/invalidate", cacheAdmin.InvalidateCache).Methods("POST")
	admin.HandleFunc("/cache/invalidate-pattern", cacheAdmin.InvalidatePattern).Methods("POST")

	return r
}

// adminOnly guards admin routes with a bearer token. An unset token
// disables the whole admin surface.
func adminOnly(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				apierr.WriteErrorWithContext(w, r, apierr.AuthForbidden("admin API is disabled"))
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" {
				apierr.WriteErrorWithContext(w, r, apierr.AuthMissing("missing Authorization header"))
				return
			}
			presented := strings.TrimPrefix(auth, "Bearer ")
			if presented == auth || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				apierr.WriteErrorWithContext(w, r, apierr.AuthInvalid("invalid admin token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response code for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// Hijack keeps the websocket upgrade working behind instrumentation.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// instrument records per-route request counts and latencies, labeled
// by the mux route template so IDs do not explode cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		status := strconv.Itoa(rec.status)
		metrics.APIRequestDuration.WithLabelValues(endpoint, r.Method, status).Observe(time.Since(start).Seconds())
		metrics.APIRequestsTotal.WithLabelValues(endpoint, r.Method, status).Inc()
	})
}
