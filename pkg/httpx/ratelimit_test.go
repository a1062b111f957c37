package httpx_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("ignores forwarding headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("handles IPv6 peers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "[2001:db8::1]:443"
		require.Equal(t, "2001:db8::1", httpx.IPKeyExtractor(req))
	})
}

func TestClientIPKeyExtractor(t *testing.T) {
	trusted, err := httpx.ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.1 "})
	require.NoError(t, err)
	extract := httpx.ClientIPKeyExtractor(trusted)

	request := func(remote string, headers map[string]string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req
	}

	t.Run("untrusted peer keeps its own address", func(t *testing.T) {
		req := request("198.51.100.7:5555", map[string]string{"X-Forwarded-For": "203.0.113.1"})
		require.Equal(t, "198.51.100.7", extract(req))
	})

	t.Run("trusted peer forwards the client", func(t *testing.T) {
		req := request("10.1.2.3:5555", map[string]string{"X-Forwarded-For": "203.0.113.1"})
		require.Equal(t, "203.0.113.1", extract(req))
	})

	t.Run("spoofed leftmost hops are skipped", func(t *testing.T) {
		req := request("10.1.2.3:5555", map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.1, 10.9.9.9"})
		require.Equal(t, "203.0.113.1", extract(req))
	})

	t.Run("X-Real-IP from a trusted peer", func(t *testing.T) {
		req := request("192.168.1.1:5555", map[string]string{"X-Real-IP": "203.0.113.2"})
		require.Equal(t, "203.0.113.2", extract(req))
	})

	t.Run("garbage headers fall back to the peer", func(t *testing.T) {
		req := request("10.1.2.3:5555", map[string]string{"X-Real-IP": "not-an-ip"})
		require.Equal(t, "10.1.2.3", extract(req))
	})
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := httpx.ParseTrustedProxies([]string{"10.0.0.1/8", "::1", ""})
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	require.Equal(t, "10.0.0.0/8", prefixes[0].String())
	require.Equal(t, "::1/128", prefixes[1].String())

	_, err = httpx.ParseTrustedProxies([]string{"proxy.internal"})
	require.ErrorContains(t, err, "proxy.internal")
}

func TestRateLimitIgnoresRotatedForwardingHeaders(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1}
	clientIP := httpx.RateLimits{}.ClientIP()

	t.Run("reset codes", func(t *testing.T) {
		limited := httpx.RateLimitByIPAndJSONField(config, clientIP, "email")(okHandler())
		passed := 0
		for i := range 20 {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"alice@example.com"}`))
			req.RemoteAddr = "198.51.100.7:5555"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				passed++
			}
		}
		require.Equal(t, 1, passed)
	})

	t.Run("bearer routes", func(t *testing.T) {
		limited := httpx.RateLimitByBearer(config, clientIP)(okHandler())
		passed := 0
		for i := range 20 {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = "198.51.100.7:5555"
			req.Header.Set("Authorization", "Bearer abc.def")
			req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i))
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				passed++
			}
		}
		require.Equal(t, 1, passed)
	})
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	t.Run("extracts and restores body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":" Alice@Example.com "}`))

		key := httpx.JSONFieldKeyExtractor("email")(req)
		require.Equal(t, "alice@example.com", key)

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"email":" Alice@Example.com "}`, string(body))
	})

	t.Run("missing or non-string field is empty", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"email":42}`, `not json`, ``} {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			require.Empty(t, httpx.JSONFieldKeyExtractor("email")(req), "body %q", body)
		}
	})
}

func TestBearerKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, httpx.BearerKeyExtractor(req))

	req.Header.Set("Authorization", "Bearer abc.def")
	key := httpx.BearerKeyExtractor(req)
	require.NotEmpty(t, key)
	require.NotContains(t, key, "abc.def")
}

func TestCompositeKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`))
	req.RemoteAddr = "192.168.1.1:12345"

	extractor := httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.JSONFieldKeyExtractor("email"),
	)
	require.Equal(t, "192.168.1.1:a@b.co", extractor(req))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "192.168.1.1", extractor(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks requests over limit", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		limited := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler())

		for i := range 3 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		limited := httpx.RateLimitByIP(config, httpx.IPKeyExtractor)(okHandler())

		req1 := httptest.NewRequest(http.MethodGet, "/", nil)
		req1.RemoteAddr = "192.168.1.1:12345"
		rec1 := httptest.NewRecorder()
		limited.ServeHTTP(rec1, req1)
		require.Equal(t, http.StatusOK, rec1.Code)

		req2 := httptest.NewRequest(http.MethodGet, "/", nil)
		req2.RemoteAddr = "192.168.1.2:12345"
		rec2 := httptest.NewRecorder()
		limited.ServeHTTP(rec2, req2)
		require.Equal(t, http.StatusOK, rec2.Code)
	})

	t.Run("allows request when key extractor returns empty", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		limited := httpx.RateLimitMiddleware(config, func(*http.Request) string { return "" })(okHandler())

		for range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRateLimitByIPAndJSONField(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	limited := httpx.RateLimitByIPAndJSONField(config, httpx.IPKeyExtractor, "email")(okHandler())

	send := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"`+email+`"}`))
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("alice@example.com"))
	require.Equal(t, http.StatusTooManyRequests, send("ALICE@example.com"))
	require.Equal(t, http.StatusOK, send("bob@example.com"))
}

func TestDefaultRateLimits(t *testing.T) {
	limits := httpx.DefaultRateLimits()
	for name, config := range map[string]httpx.RateLimitConfig{
		"strict":   limits.Strict,
		"moderate": limits.Moderate,
		"lenient":  limits.Lenient,
		"public":   limits.Public,
	} {
		require.Positive(t, config.RequestsPerWindow, name)
		require.Greater(t, config.Window, time.Duration(0), name)
		require.Positive(t, config.Burst, name)
	}

	require.Less(t, limits.Strict.RequestsPerWindow, limits.Moderate.RequestsPerWindow)
	require.Less(t, limits.Moderate.RequestsPerWindow, limits.Lenient.RequestsPerWindow)
	require.Less(t, limits.Lenient.RequestsPerWindow, limits.Public.RequestsPerWindow)
}
