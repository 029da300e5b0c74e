// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per key (client IP, username, ...).
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter that allows burst requests per key and refills one
// token every period/burst.
func New(burst int, period time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(period / time.Duration(burst)),
		burst:   burst,
		idle:    period * 2,
		now:     time.Now,
	}
}

// Allow reports whether one more request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.sweepLocked(now)
	return b.lim.AllowN(now, 1)
}

// Exhausted reports whether key has no token left, without spending one.
// A key never seen has its full burst.
func (l *Limiter) Exhausted(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return false
	}
	return b.lim.TokensAt(l.now()) < 1
}

// Reset forgets key, restoring its full burst.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweepLocked drops buckets idle long enough to have refilled completely.
func (l *Limiter) sweepLocked(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, k)
		}
	}
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// client-controlled and are not read here; behind a trusted reverse proxy the
// router installs chi's middleware.RealIP, which rewrites RemoteAddr first.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles login attempts per client IP and per username.
type LoginLimiter struct {
	ipLimiter   *Limiter
	userLimiter *Limiter
}

// NewLoginLimiter allows perIP attempts per minute from one address and a
// quarter of that (at least 3) per username over five minutes.
func NewLoginLimiter(perIP int) *LoginLimiter {
	if perIP < 1 {
		perIP = 10
	}
	perUser := perIP / 4
	if perUser < 3 {
		perUser = 3
	}
	return &LoginLimiter{
		ipLimiter:   New(perIP, time.Minute),
		userLimiter: New(perUser, 5*time.Minute),
	}
}

// Check spends one attempt from the client's address and refuses the attempt
// when either budget is used up. The per-username budget is only read here;
// Fail spends it, so correct passwords never count against an account.
func (ll *LoginLimiter) Check(r *http.Request, username string) (bool, string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := userKey(username); key != "" && ll.userLimiter.Exhausted(key) {
		return false, "Too many login attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// Fail charges a failed credential check to username.
func (ll *LoginLimiter) Fail(username string) {
	if key := userKey(username); key != "" {
		ll.userLimiter.Allow(key)
	}
}

// ResetUser clears the per-username budget after a successful login.
func (ll *LoginLimiter) ResetUser(username string) {
	if key := userKey(username); key != "" {
		ll.userLimiter.Reset(key)
	}
}

func userKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
