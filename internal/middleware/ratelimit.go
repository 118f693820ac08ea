package middleware

import (
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/time/rate"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/apierr"
)

// RateLimiter enforces a global limit plus a per-client-IP limit.
// Per-IP limiter state lives in a ristretto cache with a TTL, so idle
// clients age out without a cleanup goroutine.
type RateLimiter struct {
	global  *rate.Limiter
	perIP   *ristretto.Cache
	ipRate  rate.Limit
	ipBurst int
	ipTTL   time.Duration
}

// NewRateLimiter creates a limiter with the given global and per-IP
// rates (requests per second) and burst sizes.
func NewRateLimiter(globalRate float64, globalBurst int, ipRate float64, ipBurst int) *RateLimiter {
	perIP, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000, // ~10x expected distinct IPs
		MaxCost:     10_000,  // max tracked IPs, cost 1 each
		BufferItems: 64,
	})
	if err != nil {
		// Config above is static and valid; this cannot happen.
		panic(err)
	}
	return &RateLimiter{
		global:  rate.NewLimiter(rate.Limit(globalRate), globalBurst),
		perIP:   perIP,
		ipRate:  rate.Limit(ipRate),
		ipBurst: ipBurst,
		ipTTL:   3 * time.Minute,
	}
}

// getLimiter returns the limiter tracking an IP, creating one on first
// sight. Each hit refreshes the TTL.
func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	if v, ok := rl.perIP.Get(ip); ok {
		lim := v.(*rate.Limiter)
		rl.perIP.SetWithTTL(ip, lim, 1, rl.ipTTL)
		return lim
	}
	lim := rate.NewLimiter(rl.ipRate, rl.ipBurst)
	rl.perIP.SetWithTTL(ip, lim, 1, rl.ipTTL)
	// Sets are buffered; wait so the next request from this IP shares
	// the same limiter.
	rl.perIP.Wait()
	return lim
}

// Stop releases the limiter state.
func (rl *RateLimiter) Stop() {
	rl.perIP.Close()
}

// Limit returns a middleware handler that enforces both limits.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.global.Allow() {
			apierr.WriteErrorWithContext(w, r, apierr.RateLimitGlobal())
			return
		}

		ip := getClientIP(r)
		if !rl.getLimiter(ip).Allow() {
			apierr.WriteErrorWithContext(w, r, apierr.RateLimitIP())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP, checking common proxy headers.
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// Can hold a chain of IPs; the first is the client.
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
