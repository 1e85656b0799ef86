package api

import (
	"context"
	"net/http"
	"time"

	"expensetracker/database"

	"github.com/gin-gonic/gin"
)

// HealthResponse 健康检查结果
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Database  string    `json:"database" example:"connected"`
	Timestamp time.Time `json:"timestamp"`
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse "服务正常"
// @Failure 503 {object} HealthResponse "数据库不可用"
// @Router /health [get]
func Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "connected", Timestamp: time.Now()}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	if database.DB == nil {
		resp.Status, resp.Database = "degraded", "unavailable"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		resp.Status, resp.Database = "degraded", "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
