package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threewords/journal/internal/ctxkeys"
	"github.com/threewords/journal/internal/model"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(ok)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/entries", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Please sign in to continue.","notification":{"message":"Please sign in to continue.","severity":"error","dismissAfterMs":5000}}`, rec.Body.String())

	r := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	r = r.WithContext(ctxkeys.WithUser(r.Context(), &model.User{ID: "u1"}))
	rec = httptest.NewRecorder()
	h(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCSRFProtection(t *testing.T) {
	h := CSRFProtection(http.HandlerFunc(ok))

	// A safe request hands out the token cookie.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entries", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0]
	assert.Equal(t, csrfCookieName, token.Name)

	post := func(header string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
		r.AddCookie(token)
		if header != "" {
			r.Header.Set(csrfHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post(""))
	assert.Equal(t, http.StatusForbidden, post("wrong"))
	assert.Equal(t, http.StatusNoContent, post(token.Value))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-words", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code, "exempt path")
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestRateLimit_Middleware(t *testing.T) {
	h := RateLimit(1, time.Minute)(ok)

	call := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/generate-words", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		h(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call().Code)
	rec := call()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(ok), mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second"}, order)
}
