package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense 消费记录模型
// 只支持创建和删除，不提供修改
type Expense struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"not null;index:idx_expenses_user_time,priority:1;index:idx_expenses_user_category,priority:1"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Description string          `json:"description" gorm:"size:200;not null"`
	Category    string          `json:"category" gorm:"size:50;not null;index:idx_expenses_user_category,priority:2"`
	ExpenseTime time.Time       `json:"date" gorm:"not null;index:idx_expenses_user_time,priority:2"`
	CreatedAt   time.Time       `json:"created_at"`
	User        User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// MaxDescriptionLength 描述最大长度（字符数）
const MaxDescriptionLength = 200

// Category 消费类别常量
const (
	CategoryFood          = "Food & Dining"
	CategoryTransport     = "Transportation"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills & Utilities"
	CategoryHealthcare    = "Healthcare"
	CategoryTravel        = "Travel"
	CategoryEducation     = "Education"
	CategoryInvestment    = "Investment"
	CategorySubscription  = "Subscription"
	CategoryPersonalCare  = "Personal Care"
	CategoryGifts         = "Gifts & Donations"
	CategoryBusiness      = "Business"
	CategoryInsurance     = "Insurance"
	CategoryTaxes         = "Taxes"
	CategoryOther         = "Other"
)

// categories 唯一的类别来源，校验和所有统计都使用这一份
var categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryShopping,
	CategoryBills,
	CategoryHealthcare,
	CategoryTravel,
	CategoryEducation,
	CategoryInvestment,
	CategorySubscription,
	CategoryPersonalCare,
	CategoryGifts,
	CategoryBusiness,
	CategoryInsurance,
	CategoryTaxes,
	CategoryOther,
}

// 类别颜色（与前端图表保持一致）
var categoryColors = map[string]string{
	CategoryFood:          "#ef4444",
	CategoryTransport:     "#3b82f6",
	CategoryEntertainment: "#ec4899",
	CategoryShopping:      "#a855f7",
	CategoryBills:         "#f97316",
	CategoryHealthcare:    "#10b981",
	CategoryTravel:        "#06b6d4",
	CategoryEducation:     "#f59e0b",
	CategoryInvestment:    "#22c55e",
	CategorySubscription:  "#6366f1",
	CategoryPersonalCare:  "#f472b6",
	CategoryGifts:         "#e11d48",
	CategoryBusiness:      "#0ea5e9",
	CategoryInsurance:     "#14b8a6",
	CategoryTaxes:         "#78716c",
	CategoryOther:         "#64748b",
}

// CategoryInfo 类别及其展示颜色
type CategoryInfo struct {
	Name  string `json:"name" example:"Food & Dining"`
	Color string `json:"color" example:"#ef4444"`
}

// GetCategories 获取所有消费类别
func GetCategories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// GetCategoryInfos 获取类别列表（带颜色）
func GetCategoryInfos() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categories))
	for _, name := range categories {
		out = append(out, CategoryInfo{Name: name, Color: CategoryColor(name)})
	}
	return out
}

// CategoryColor 获取类别颜色，未知类别返回灰色
func CategoryColor(name string) string {
	if color, ok := categoryColors[name]; ok {
		return color
	}
	return "#64748b"
}

// IsValidCategory 判断类别是否合法（区分大小写）
func IsValidCategory(name string) bool {
	_, ok := categoryColors[name]
	return ok
}
