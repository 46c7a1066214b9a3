package rest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	var captured string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, captured)
	assert.Equal(t, captured, rec.Header().Get(requestIDHeader))
}

func TestRequestID_IncomingHeader(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantNew bool
	}{
		{"alphanumeric with hyphens", "abc-123_DEF", false},
		{"newline", "fake\nINJECTED: x", true},
		{"spaces", "id with spaces", true},
		{"markup", "<script>", true},
		{"too long", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(requestIDHeader, tt.id)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantNew {
				assert.NotEqual(t, tt.id, captured)
				assert.NotEmpty(t, captured)
			} else {
				assert.Equal(t, tt.id, captured)
			}
		})
	}
}

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	h := RateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222").Code)

	rec := send("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", decodeBody[errorBody](t, rec).Error)

	// Buckets are per IP.
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", sessionToken(req))

	req.Header.Set("Authorization", "Bearer  abc ")
	assert.Equal(t, "abc", sessionToken(req))

	req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", sessionToken(req))
}

func TestAuthGuards(t *testing.T) {
	f := newFixture(t)

	t.Run("anonymous", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/me/", "", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token is anonymous", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/me/", "", "", "forged")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me/", nil)
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: studentToken})
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[userView](t, rec)
		assert.Equal(t, userView{ID: 1, Name: "Ana López", Email: "ana@b.com"}, got)
	})

	t.Run("superuser only", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/export/7/", "", "", studentToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodGet, "/export/7/", "", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, f.exporter.asked)
	})
}

func TestRoutes_CommonBehaviour(t *testing.T) {
	f := newFixture(t)

	t.Run("healthz", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/healthz", "", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	})

	t.Run("prefix and trailing slash", func(t *testing.T) {
		for _, path := range []string{"/courses", "/courses/", "/api/courses", "/api/courses/"} {
			rec := f.do(t, http.MethodGet, path, "", "", "")
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/login/", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/courses/", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
