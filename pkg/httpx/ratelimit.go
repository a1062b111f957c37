package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines a token bucket: RequestsPerWindow refill over
// Window, with Burst tokens available at once.
type RateLimitConfig struct {
	RequestsPerWindow int           `env:"REQUESTS"`
	Window            time.Duration `env:"WINDOW"`
	Burst             int           `env:"BURST"`
}

// RateLimits groups the profiles used by the router. Each profile can be
// overridden from the environment, e.g. RATELIMIT_STRICT_REQUESTS=10 or
// RATELIMIT_STRICT_WINDOW=30s, when parsed with an "RATELIMIT_" prefix.
type RateLimits struct {
	// TrustedProxies lists the addresses or CIDR ranges whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty means
	// requests are keyed on RemoteAddr only.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Credential guessing surfaces: TFA codes, reset codes, sign in.
	Strict RateLimitConfig `envPrefix:"STRICT_"`
	// Authenticated writes.
	Moderate RateLimitConfig `envPrefix:"MODERATE_"`
	// Health probes and reads.
	Lenient RateLimitConfig `envPrefix:"LENIENT_"`
	// Public key material.
	Public RateLimitConfig `envPrefix:"PUBLIC_"`
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5},
		Moderate: RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20},
		Lenient:  RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100},
		Public:   RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000},
	}
}

// KeyExtractor returns the bucket key for a request. An empty key lets the
// request through unlimited.
type KeyExtractor func(*http.Request) string

// ParseTrustedProxies parses addresses and CIDR ranges into prefixes.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// ClientIP returns the IP extractor for these limits. Entries that fail to
// parse are ignored; validate them with ParseTrustedProxies first.
func (l RateLimits) ClientIP() KeyExtractor {
	trusted, _ := ParseTrustedProxies(l.TrustedProxies)
	return ClientIPKeyExtractor(trusted)
}

// ClientIPKeyExtractor extracts the client IP. Forwarding headers are only
// read when the direct peer is inside a trusted prefix; X-Forwarded-For is
// then walked from the right, skipping trusted hops.
func ClientIPKeyExtractor(trusted []netip.Prefix) KeyExtractor {
	isTrusted := func(addr netip.Addr) bool {
		for _, prefix := range trusted {
			if prefix.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(r *http.Request) string {
		peer, ok := remoteAddr(r.RemoteAddr)
		if !ok {
			return r.RemoteAddr
		}
		if !isTrusted(peer) {
			return peer.String()
		}

		if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
			hops := strings.Split(strings.Join(xff, ","), ",")
			client := peer
			for i := len(hops) - 1; i >= 0; i-- {
				hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
				if err != nil {
					break
				}
				client = hop.Unmap()
				if !isTrusted(client) {
					break
				}
			}
			return client.String()
		}

		if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
			return xri.Unmap().String()
		}
		return peer.String()
	}
}

// IPKeyExtractor keys on RemoteAddr and ignores forwarding headers.
func IPKeyExtractor(r *http.Request) string {
	return ClientIPKeyExtractor(nil)(r)
}

func remoteAddr(raw string) (netip.Addr, bool) {
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		return addrPort.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

// BearerKeyExtractor keys on a fingerprint of the bearer token so the raw
// token never sits in the limiter map.
func BearerKeyExtractor(r *http.Request) string {
	if tok, ok := BearerFromContext(r.Context()); ok {
		return cryptox.FingerprintToken(tok)
	}
	if tok, ok := ParseBearer(r.Header.Get("Authorization")); ok {
		return cryptox.FingerprintToken(tok)
	}
	return ""
}

// JSONFieldKeyExtractor keys on a top-level string field of a JSON body,
// lower-cased. The body is restored for the handler.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil || len(raw) == 0 {
			return ""
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return ""
		}
		v, _ := doc[field].(string)
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// CompositeKeyExtractor joins the non-empty results of several extractors.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters, at most once every five minutes. A full
// bucket means the key has not been seen for a while.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware limits requests per key with the given profile.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	rl := &rateLimiter{
		rate:        rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := rl.getLimiter(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("rate limit exceeded",
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limit_exceeded",
					"error_description": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits by client IP, as resolved by clientIP.
func RateLimitByIP(config RateLimitConfig, clientIP KeyExtractor) Middleware {
	return RateLimitMiddleware(config, clientIP)
}

// RateLimitByBearer limits by bearer token combined with client IP.
func RateLimitByBearer(config RateLimitConfig, clientIP KeyExtractor) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		BearerKeyExtractor,
		clientIP,
	))
}

// RateLimitByIPAndJSONField limits by IP plus a body field, so one caller
// cannot hammer a single email address from behind a shared address.
func RateLimitByIPAndJSONField(config RateLimitConfig, clientIP KeyExtractor, field string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		clientIP,
		JSONFieldKeyExtractor(field),
	))
}
