package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryBreakdown 时间窗口内按类别汇总
type CategoryBreakdown struct {
	Category string          `json:"category" example:"Food & Dining"`
	Total    decimal.Decimal `json:"total" swaggertype:"number" example:"30"`
	Count    int64           `json:"count" example:"2"`
	Average  decimal.Decimal `json:"average" swaggertype:"number" example:"15"`
}

// MonthTotal 某个自然月的合计（存储层分组结果，只包含有记录的月份）
type MonthTotal struct {
	Year  int             `json:"year"`
	Month int             `json:"month"` // 1-12
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// TrendPoint 月度趋势中的一个点
type TrendPoint struct {
	Month string          `json:"month" example:"Jan"`
	Year  int             `json:"year" example:"2024"`
	Total decimal.Decimal `json:"total" swaggertype:"number" example:"520.5"`
	Count int64           `json:"count" example:"18"`
}

// DayPattern 按星期汇总，DayIndex 1=周日 ... 7=周六
type DayPattern struct {
	DayIndex int             `json:"day_index" example:"1"`
	Total    decimal.Decimal `json:"total" swaggertype:"number" example:"88.2"`
	Count    int64           `json:"count" example:"4"`
}

// Summary 统计汇总
type Summary struct {
	TotalSpent        decimal.Decimal     `json:"total_spent" swaggertype:"number" example:"1234.56"`
	DailyAverage      decimal.Decimal     `json:"daily_average" swaggertype:"number" example:"41.15"`
	CategoryBreakdown []CategoryBreakdown `json:"category_breakdown"`
	MonthlyTrend      []TrendPoint        `json:"monthly_trend"`
	DailyPattern      []DayPattern        `json:"daily_pattern"`
	TopExpenses       []Expense           `json:"top_expenses"`
	Period            string              `json:"period" example:"month"`
	StartDate         time.Time           `json:"start_date"`
	EndDate           time.Time           `json:"end_date"`
}

// PeriodTotal 一段时间内的合计与笔数
type PeriodTotal struct {
	Total decimal.Decimal `json:"total" swaggertype:"number" example:"500"`
	Count int64           `json:"count" example:"12"`
}

// Change 环比变化
type Change struct {
	Amount     decimal.Decimal `json:"amount" swaggertype:"number" example:"250"`
	Percentage decimal.Decimal `json:"percentage" swaggertype:"number" example:"100"`
}

// ComparisonSummary 本月与上月对比
type ComparisonSummary struct {
	CurrentMonth PeriodTotal `json:"current_month"`
	LastMonth    PeriodTotal `json:"last_month"`
	Change       Change      `json:"change"`
}

// CategoryInsight 全部历史的类别画像（不受时间范围影响）
type CategoryInsight struct {
	Category         string          `json:"category" example:"Food & Dining"`
	TotalSpent       decimal.Decimal `json:"total_spent" swaggertype:"number" example:"3200"`
	TransactionCount int64           `json:"transaction_count" example:"120"`
	AverageAmount    decimal.Decimal `json:"average_amount" swaggertype:"number" example:"26.67"`
	MaxAmount        decimal.Decimal `json:"max_amount" swaggertype:"number" example:"180"`
	MinAmount        decimal.Decimal `json:"min_amount" swaggertype:"number" example:"2.5"`
	LastTransaction  time.Time       `json:"last_transaction"`
}
