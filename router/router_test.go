package router

import (
	"net/http/httptest"
	"testing"
	"time"

	"expensetracker/config"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		JWT:       config.JWTConfig{Secret: "router-secret", ExpireTime: time.Hour},
		RateLimit: config.RateLimitConfig{LoginAttempts: 2, WindowSeconds: 60},
	}
	middleware.InitJWT(cfg)
	return cfg
}

func TestSetupRouter_ProtectedRoutes(t *testing.T) {
	r := SetupRouter(testConfig(), service.NoopPublisher{})

	for _, path := range []string{
		"/api/v1/expenses",
		"/api/v1/analytics/summary",
		"/api/v1/analytics/compare",
		"/api/v1/export/csv",
		"/api/v1/auth/profile",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, 401, w.Code, path)
	}
}

func TestSetupRouter_Categories(t *testing.T) {
	r := SetupRouter(testConfig(), service.NoopPublisher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/categories", nil))
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "Transportation")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSetupRouter_LoginRateLimit(t *testing.T) {
	r := SetupRouter(testConfig(), service.NoopPublisher{})

	// 请求体为空，前两次参数校验失败，第三次被限流
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{400, 400, 429}, codes)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := SetupRouter(testConfig(), service.NoopPublisher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/v1/expenses", nil))
	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
