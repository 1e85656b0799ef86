package api

import (
	"log"

	"expensetracker/config"
	"expensetracker/middleware"

	"github.com/gin-gonic/gin"
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情，避免信息泄露
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// serverError 记录内部错误（带请求 ID）并返回 500
func serverError(c *gin.Context, err error, fallback string) {
	log.Printf("[%s] %s %s: %v", middleware.GetRequestID(c), c.Request.Method, c.Request.URL.Path, err)
	InternalError(c, SafeErrorMessage(err, fallback))
}
