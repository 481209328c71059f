package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdleTTL is how long an idle client's bucket is kept
const DefaultLimiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per client IP. Buckets idle for longer
// than the idle TTL are evicted.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	trusted []*net.IPNet
	now     func() time.Time

	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	lastSweep time.Time
}

// RateLimiterOption configures a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithTrustedProxies makes the limiter key on X-Forwarded-For when the peer
// is one of proxies. Without it the header is ignored.
func WithTrustedProxies(proxies []*net.IPNet) RateLimiterOption {
	return func(l *RateLimiter) { l.trusted = proxies }
}

// WithIdleTTL overrides DefaultLimiterIdleTTL
func WithIdleTTL(ttl time.Duration) RateLimiterOption {
	return func(l *RateLimiter) {
		if ttl > 0 {
			l.idleTTL = ttl
		}
	}
}

// NewRateLimiter creates a per-IP limiter allowing rps requests per second
// with the given burst
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	l := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  DefaultLimiterIdleTTL,
		now:      time.Now,
		limiters: make(map[string]*clientLimiter),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// ParseTrustedProxies parses CIDRs or bare IPs
func ParseTrustedProxies(values []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			ip := net.ParseIP(v)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", v)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(v)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for key, c := range l.limiters {
			if now.Sub(c.lastSeen) >= l.idleTTL {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.limiters[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

// size returns how many client buckets are held
func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware rejects requests over the limit with 429. Event streams are
// long-lived and not limited.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/stream") {
			next.ServeHTTP(w, r)
			return
		}

		ip := l.clientIP(r)
		if !l.limiter(ip).Allow() {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded, try again later"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the peer address. When the peer is a trusted proxy it
// walks X-Forwarded-For from the right and returns the first hop that is not
// itself a trusted proxy.
func (l *RateLimiter) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !l.isTrusted(peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" || net.ParseIP(hop) == nil {
			break
		}
		if !l.isTrusted(hop) {
			return hop
		}
	}
	return peer
}

func (l *RateLimiter) isTrusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range l.trusted {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// remoteHost is the host part of the connection's peer address
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
