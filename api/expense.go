package api

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/repository"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// 列表分页
const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// 可接受的时间格式，依次尝试
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// parseDateTime 解析时间，不带时区的按服务器本地时间处理
func parseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseEndDate 只有日期时包含当天
func parseEndDate(s string) (time.Time, bool) {
	t, ok := parseDateTime(s)
	if ok && len(strings.TrimSpace(s)) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, ok
}

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	events service.EventPublisher
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(events service.EventPublisher) *ExpenseHandler {
	if events == nil {
		events = service.NoopPublisher{}
	}
	return &ExpenseHandler{events: events}
}

func (h *ExpenseHandler) repo() *repository.ExpenseRepository {
	return repository.NewExpenseRepository(database.DB)
}

// publish 推送事件失败只记录日志，不影响请求结果
func (h *ExpenseHandler) publish(ctx context.Context, eventType string, e *models.Expense) {
	if err := h.events.Publish(ctx, service.NewExpenseEvent(eventType, e)); err != nil {
		log.Printf("推送 %s 事件失败 (id=%d): %v", eventType, e.ID, err)
	}
}

// CreateExpenseRequest 创建消费记录请求
type CreateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number" example:"99.99"`
	Description string           `json:"description" binding:"required" example:"午餐"`
	Category    string           `json:"category" binding:"required" example:"Food & Dining"`
	Date        string           `json:"date" binding:"required" example:"2024-01-15 12:30:00"`
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	Page      int    `form:"page" example:"1"`
	Limit     int    `form:"limit" example:"50"`
	Category  string `form:"category" example:"Food & Dining"`
	StartDate string `form:"start_date" example:"2024-01-01"`
	EndDate   string `form:"end_date" example:"2024-12-31"`
}

// toExpense 校验请求并转换为模型，失败时返回提示信息
func (req *CreateExpenseRequest) toExpense(userID uint) (*models.Expense, string) {
	if !req.Amount.IsPositive() {
		return nil, "金额必须大于 0"
	}
	if !models.HasMinorUnitPrecision(*req.Amount) {
		return nil, "金额最多两位小数"
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, "描述不能为空"
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return nil, "描述不能超过 200 个字符"
	}

	if !models.IsValidCategory(req.Category) {
		return nil, "无效的消费类别"
	}

	expenseTime, ok := parseDateTime(req.Date)
	if !ok {
		return nil, "时间格式错误，应为: 2006-01-02 15:04:05 或 2006-01-02"
	}

	return &models.Expense{
		UserID:      userID,
		Amount:      *req.Amount,
		Description: description,
		Category:    req.Category,
		ExpenseTime: expenseTime,
	}, ""
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 创建一条新的消费记录，金额为正且最多两位小数，类别必须是预置类别之一
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	expense, msg := req.toExpense(userID)
	if expense == nil {
		BadRequest(c, msg)
		return
	}

	if err := h.repo().Create(c.Request.Context(), expense); err != nil {
		serverError(c, err, "创建消费记录失败")
		return
	}
	h.publish(c.Request.Context(), service.EventExpenseCreated, expense)

	SuccessWithMessage(c, "创建成功", expense)
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 获取当前用户的消费记录，按消费时间倒序，支持分页和筛选
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量（最大 100）" default(50)
// @Param category query string false "类别筛选"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)，包含当天"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = defaultPageSize
	}
	if req.Limit > maxPageSize {
		req.Limit = maxPageSize
	}

	filter := repository.ExpenseFilter{
		Category: req.Category,
		Page:     req.Page,
		PageSize: req.Limit,
	}
	if req.Category != "" && !models.IsValidCategory(req.Category) {
		BadRequest(c, "无效的消费类别")
		return
	}
	if req.StartDate != "" {
		start, ok := parseDateTime(req.StartDate)
		if !ok {
			BadRequest(c, "开始日期格式错误")
			return
		}
		filter.Start = &start
	}
	if req.EndDate != "" {
		end, ok := parseEndDate(req.EndDate)
		if !ok {
			BadRequest(c, "结束日期格式错误")
			return
		}
		filter.End = &end
	}

	expenses, total, err := h.repo().List(c.Request.Context(), userID, filter)
	if err != nil {
		serverError(c, err, "查询失败")
		return
	}

	Success(c, NewPageResponse(expenses, total, req.Page, req.Limit))
}

func parseExpenseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	expense, err := h.repo().FindByID(c.Request.Context(), userID, id)
	if errors.Is(err, repository.ErrExpenseNotFound) {
		NotFound(c, "记录不存在")
		return
	}
	if err != nil {
		serverError(c, err, "查询失败")
		return
	}

	Success(c, expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 删除当前用户的一条消费记录（物理删除）
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseExpenseID(c)
	if !ok {
		return
	}

	repo := h.repo()
	expense, err := repo.FindByID(c.Request.Context(), userID, id)
	if err == nil {
		err = repo.Delete(c.Request.Context(), userID, id)
	}
	if errors.Is(err, repository.ErrExpenseNotFound) {
		NotFound(c, "记录不存在")
		return
	}
	if err != nil {
		serverError(c, err, "删除失败")
		return
	}
	h.publish(c.Request.Context(), service.EventExpenseDeleted, expense)

	SuccessWithMessage(c, "删除成功", nil)
}

// GetCategories 获取消费类别列表
// @Summary 获取消费类别列表
// @Description 返回预置的消费类别及其图表颜色，顺序固定
// @Tags 消费记录
// @Produce json
// @Success 200 {object} Response{data=[]models.CategoryInfo} "获取成功"
// @Router /api/v1/categories [get]
func (h *ExpenseHandler) GetCategories(c *gin.Context) {
	Success(c, models.GetCategoryInfos())
}
