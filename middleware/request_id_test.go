package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(200, GetRequestID(c))
	})

	// 未携带时生成
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	// 合法 ID 沿用
	existing := uuid.NewString()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, existing)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, existing, w2.Header().Get(RequestIDHeader))

	// 非法 ID 替换
	req3 := httptest.NewRequest("GET", "/ping", nil)
	req3.Header.Set(RequestIDHeader, "<script>")
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req3)
	assert.NotEqual(t, "<script>", w3.Header().Get(RequestIDHeader))
}
