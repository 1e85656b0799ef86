package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency 新用户默认币种
const DefaultCurrency = "USD"

// User 用户模型
type User struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Username      string          `json:"username" gorm:"uniqueIndex;size:30;not null"`
	Email         string          `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password      string          `json:"-" gorm:"size:255;not null"`
	Currency      string          `json:"currency" gorm:"size:3;default:USD"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget" gorm:"type:decimal(12,2);default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}
