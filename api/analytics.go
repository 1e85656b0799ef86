package api

import (
	"time"

	"expensetracker/analytics"
	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/repository"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 消费统计处理器
type AnalyticsHandler struct {
	cfg    *config.Config
	store  analytics.Store // 为空时使用 database.DB
	mailer ReportMailer
	now    func() time.Time
}

// NewAnalyticsHandler 创建统计处理器
func NewAnalyticsHandler(cfg *config.Config) *AnalyticsHandler {
	return &AnalyticsHandler{
		cfg:    cfg,
		mailer: service.NewEmailService(&cfg.Email),
		now:    time.Now,
	}
}

func (h *AnalyticsHandler) engine() *analytics.Engine {
	if h.store != nil {
		return analytics.NewEngine(h.store)
	}
	return analytics.NewEngine(repository.NewExpenseRepository(database.DB))
}

// Summary 时间范围内的消费汇总
// @Summary 消费汇总
// @Description 返回所选时间范围内的总额、日均、类别分布、星期分布、金额前 5 的记录，以及最近 12 个月的趋势（趋势不受 period 影响）。
// @Description period: week 为最近 7 天；month 为本自然月；year 为本自然年；其他值按 month 处理。
// @Tags 统计分析
// @Produce json
// @Security BearerAuth
// @Param period query string false "统计周期 week/month/year" default(month)
// @Success 200 {object} Response{data=models.Summary} "获取成功"
// @Failure 400 {object} Response "period 参数错误（严格模式）"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	keyword := c.Query("period")

	if h.cfg.Analytics.StrictPeriod {
		if _, err := analytics.ParsePeriod(keyword); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	summary, err := h.engine().Summary(c.Request.Context(), userID, keyword, h.now())
	if err != nil {
		serverError(c, err, "统计失败")
		return
	}

	Success(c, summary)
}

// Categories 全部历史的类别画像
// @Summary 类别画像
// @Description 按类别统计全部历史记录（不受时间范围影响），按总额降序
// @Tags 统计分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.CategoryInsight} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/analytics/categories [get]
func (h *AnalyticsHandler) Categories(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	insights, err := h.engine().CategoryInsights(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err, "统计失败")
		return
	}

	Success(c, insights)
}

// Compare 本月与上月对比
// @Summary 月度对比
// @Description 本自然月与上一自然月的总额、笔数及变化；上月为 0 时百分比为 0
// @Tags 统计分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.ComparisonSummary} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/analytics/compare [get]
func (h *AnalyticsHandler) Compare(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	cmp, err := h.engine().Compare(c.Request.Context(), userID, h.now())
	if err != nil {
		serverError(c, err, "统计失败")
		return
	}

	Success(c, cmp)
}
