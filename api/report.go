package api

import (
	"errors"

	"expensetracker/analytics"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// ReportMailer 发送月度报告
type ReportMailer interface {
	SendMonthlyReport(toEmail string, report *service.MonthlyReport) error
}

// EmailReport 将本月消费报告发送到当前用户邮箱
// @Summary 发送月度报告邮件
// @Description 汇总本月与上月对比、本月类别分布以及预算使用情况，发送到账号邮箱
// @Tags 统计分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "发送成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "用户不存在"
// @Failure 500 {object} Response "发送失败"
// @Failure 503 {object} Response "邮件服务未启用"
// @Router /api/v1/analytics/report/email [post]
func (h *AnalyticsHandler) EmailReport(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	user, ok := loadUser(c, userID)
	if !ok {
		return
	}

	now := h.now()
	engine := h.engine()
	cmp, err := engine.Compare(c.Request.Context(), userID, now)
	if err != nil {
		serverError(c, err, "统计失败")
		return
	}
	month := analytics.MonthWindow(now, 0)
	breakdown, err := engine.CategoryBreakdown(c.Request.Context(), userID, month)
	if err != nil {
		serverError(c, err, "统计失败")
		return
	}

	report := &service.MonthlyReport{
		Username:   user.Username,
		Currency:   user.Currency,
		Month:      month.Start,
		Comparison: cmp,
		Categories: breakdown,
		Budget:     user.MonthlyBudget,
	}
	if err := h.mailer.SendMonthlyReport(user.Email, report); err != nil {
		if errors.Is(err, service.ErrEmailDisabled) {
			ServiceUnavailable(c, err.Error())
			return
		}
		serverError(c, err, "邮件发送失败")
		return
	}

	SuccessWithMessage(c, "报告已发送至 "+user.Email, nil)
}
