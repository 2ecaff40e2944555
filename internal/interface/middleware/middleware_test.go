package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-library/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type staticSessions struct{ ok bool }

func (s staticSessions) ValidateSession(context.Context, string, string) (bool, error) {
	return s.ok, nil
}

func echoIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uid":  c.GetString(middleware.CtxUserID),
		"role": c.GetString(middleware.CtxUserRole),
	})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func Test_Auth(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	admin, _, err := jwt.GenerateAccessToken("u1", "Admin", "s1")
	require.NoError(t, err)
	member, _, err := jwt.GenerateAccessToken("u2", "User", "s2")
	require.NoError(t, err)
	refreshOnly, _, err := jwt.GenerateRefreshToken("u1", "Admin", "s1")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		header   string
		cookie   string
		sessions staticSessions
		status   int
	}{
		{"bearer admin", "Bearer " + admin, "", staticSessions{true}, http.StatusOK},
		{"cookie member", "", member, staticSessions{true}, http.StatusOK},
		{"missing token", "", "", staticSessions{true}, http.StatusUnauthorized},
		{"refresh token used as access", "Bearer " + refreshOnly, "", staticSessions{true}, http.StatusUnauthorized},
		{"garbage", "Bearer abc", "", staticSessions{true}, http.StatusUnauthorized},
		{"revoked session", "Bearer " + admin, "", staticSessions{false}, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			r := gin.New()
			r.GET("/me", middleware.Auth(tc.sessions, jwt), echoIdentity)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: tc.cookie})
			}

			// act
			w := serve(r, req)

			// assert
			assert.Equal(t, tc.status, w.Code)
			if tc.status != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func Test_RequireAdmin(t *testing.T) {
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	admin, _, _ := jwt.GenerateAccessToken("u1", "Admin", "s1")
	member, _, _ := jwt.GenerateAccessToken("u2", "User", "s2")

	r := gin.New()
	r.GET("/admin", middleware.Auth(nil, jwt), middleware.RequireAdmin(), echoIdentity)

	for token, want := range map[string]int{admin: http.StatusOK, member: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := serve(r, req)

		assert.Equal(t, want, w.Code)
	}
}

func Test_RateLimit_BlocksAfterMax(t *testing.T) {
	// arrange
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := gin.New()
	r.GET("/x", middleware.RateLimit(rdb, 2, time.Minute, middleware.KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// act
	var codes []int
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, last.Code)
	}

	// assert
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, last.Body.String(), "rate limit exceeded")
}

func Test_RateLimit_AllowBypasses(t *testing.T) {
	// arrange
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := gin.New()
	r.Use(middleware.RealIP())
	r.GET("/x", middleware.RateLimit(rdb, 1, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// act
	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Forwarded-For", "10.1.2.3")
		codes = append(codes, serve(r, req).Code)
	}

	// assert
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusNoContent}, codes)
}

func Test_RateLimit_NilRedisIsNoop(t *testing.T) {
	r := gin.New()
	r.GET("/x", middleware.RateLimit(nil, 1, time.Minute, middleware.KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
}

func Test_RealIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "198.51.100.1"},
		{"garbage falls back", map[string]string{"CF-Connecting-IP": "nope"}, "192.0.2.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			r := gin.New()
			r.Use(middleware.RealIP())
			r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })
			req := httptest.NewRequest(http.MethodGet, "/ip", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			// act
			w := serve(r, req)

			// assert
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func Test_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	fresh := serve(r, httptest.NewRequest(http.MethodGet, "/id", nil))
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(middleware.RequestIDHeader, "6f1c3f4e-3b8a-4b8e-9d3e-2f6e5a7b8c9d")
	reused := serve(r, req)

	assert.Len(t, fresh.Body.String(), 36)
	assert.Equal(t, fresh.Body.String(), fresh.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "6f1c3f4e-3b8a-4b8e-9d3e-2f6e5a7b8c9d", reused.Body.String())
}
