package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"fuelsync-backend/pkg/utils"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiter throttles a route per client IP.
type RateLimiter struct {
	limiters map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int

	// X-Forwarded-For is honoured only for requests arriving from these addresses.
	trusted map[string]bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per IP with bursts of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.limiters[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// TrustProxies lets requests from the given proxy addresses name the client
// through X-Forwarded-For.
func (rl *RateLimiter) TrustProxies(addrs ...string) *RateLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.trusted == nil {
		rl.trusted = make(map[string]bool, len(addrs))
	}
	for _, a := range addrs {
		rl.trusted[strings.TrimSpace(a)] = true
	}
	return rl
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientIP keys on the peer address. Behind a trusted proxy it walks
// X-Forwarded-For from the right and returns the first untrusted hop, since
// everything left of that is client supplied.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	host := remoteHost(r)
	if !rl.trusted[host] {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !rl.trusted[hop] {
			return hop
		}
	}
	return host
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientIP(r)
		if !rl.getLimiter(key).Allow() {
			log.Warnf("[RateLimit] %s exceeded limit on %s", key, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			utils.Error(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops visitors idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.limiters {
		if time.Since(v.lastSeen) > maxIdle {
			delete(rl.limiters, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(10 * time.Minute)
			case <-stop:
				return
			}
		}
	}()
}
