package api

import (
	"errors"
	"strings"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30" example:"testuser"`
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required,min=6,max=50" example:"password123"`
}

// LoginRequest 登录请求（支持用户名或邮箱）
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"test@example.com"` // 可为用户名或邮箱
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// UpdateProfileRequest 更新个人设置
type UpdateProfileRequest struct {
	Currency      string           `json:"currency" binding:"omitempty,len=3,alpha" example:"USD"`
	MonthlyBudget *decimal.Decimal `json:"monthly_budget" swaggertype:"number" example:"2000"`
}

// loadUser 查询用户，不存在返回 404，其他错误返回 500
func loadUser(c *gin.Context, userID uint) (*models.User, bool) {
	var user models.User
	err := database.DB.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "用户不存在")
		return nil, false
	}
	if err != nil {
		serverError(c, err, "查询用户失败")
		return nil, false
	}
	return &user, true
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户账号，成功后直接返回 token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=LoginResponse} "注册成功"
// @Failure 400 {object} Response "请求参数错误或用户已存在"
// @Failure 429 {object} Response "请求过于频繁"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// 用户名或邮箱已被使用
	var existingUser models.User
	err := database.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existingUser).Error
	if err == nil {
		BadRequest(c, "用户已存在")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		serverError(c, err, "查询用户失败")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	user := models.User{
		Username:      req.Username,
		Email:         req.Email,
		Password:      string(hashedPassword),
		Currency:      models.DefaultCurrency,
		MonthlyBudget: decimal.Zero,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		serverError(c, err, "创建用户失败")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	SuccessWithMessage(c, "注册成功", LoginResponse{
		Token:    token,
		UserInfo: user,
	})
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户登录获取 JWT token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "用户名或密码错误"
// @Failure 429 {object} Response "请求过于频繁"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	account := strings.TrimSpace(req.Username)
	var user models.User
	err := database.DB.Where("username = ? OR email = ?", account, strings.ToLower(account)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		Unauthorized(c, "用户名或密码错误")
		return
	}
	if err != nil {
		serverError(c, err, "查询用户失败")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, LoginResponse{
		Token:    token,
		UserInfo: user,
	})
}

// GetProfile 获取用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	user, ok := loadUser(c, userID)
	if !ok {
		return
	}

	Success(c, user)
}

// UpdateProfile 更新币种与月度预算
// @Summary 更新个人设置
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "个人设置"
// @Success 200 {object} Response{data=models.User} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.MonthlyBudget != nil && (req.MonthlyBudget.IsNegative() || !models.HasMinorUnitPrecision(*req.MonthlyBudget)) {
		BadRequest(c, "月度预算不能为负数，且最多两位小数")
		return
	}

	user, ok := loadUser(c, userID)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Currency != "" {
		user.Currency = strings.ToUpper(req.Currency)
		updates["currency"] = user.Currency
	}
	if req.MonthlyBudget != nil {
		user.MonthlyBudget = *req.MonthlyBudget
		updates["monthly_budget"] = user.MonthlyBudget
	}
	if len(updates) == 0 {
		BadRequest(c, "没有需要更新的字段")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		serverError(c, err, "更新失败")
		return
	}

	SuccessWithMessage(c, "更新成功", user)
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required" example:"oldpassword123"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=50" example:"newpassword123"`
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "密码信息"
// @Success 200 {object} Response "修改成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "原密码错误"
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, ok := loadUser(c, userID)
	if !ok {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		Unauthorized(c, "原密码错误")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	if err := database.DB.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		serverError(c, err, "更新密码失败")
		return
	}

	SuccessWithMessage(c, "密码修改成功", nil)
}
