package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensetracker/analytics"
	"expensetracker/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrExpenseNotFound 记录不存在或不属于当前用户
var ErrExpenseNotFound = errors.New("消费记录不存在")

// ExpenseFilter 消费记录列表筛选条件
type ExpenseFilter struct {
	Category string
	Start    *time.Time
	End      *time.Time
	Page     int
	PageSize int
}

// ExpenseRepository 消费记录存储，所有查询都限定在单个用户范围内
type ExpenseRepository struct {
	db *gorm.DB
}

var _ analytics.Store = (*ExpenseRepository)(nil)

// NewExpenseRepository 创建消费记录存储
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) scoped(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Expense{}).Where("user_id = ?", userID)
}

func (r *ExpenseRepository) inWindow(q *gorm.DB, w analytics.Window) *gorm.DB {
	d := dialectOf(r.db)
	return q.Where(d.expenseTime+" >= ? AND "+d.expenseTime+" <= ?", d.timeArg(w.Start), d.timeArg(w.End))
}

// Create 创建消费记录，消费时间统一转为本地时间保存
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	expense.ExpenseTime = expense.ExpenseTime.In(time.Local)
	if err := r.db.WithContext(ctx).Create(expense).Error; err != nil {
		return fmt.Errorf("创建消费记录失败: %w", err)
	}
	return nil
}

// Delete 删除当前用户的一条记录，记录不存在或属于其他用户时返回 ErrExpenseNotFound
func (r *ExpenseRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Expense{})
	if res.Error != nil {
		return fmt.Errorf("删除消费记录失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// FindByID 获取当前用户的一条记录
func (r *ExpenseRepository) FindByID(ctx context.Context, userID, id uint) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&expense).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询消费记录失败: %w", err)
	}
	return &expense, nil
}

// List 分页查询，按消费时间、创建时间倒序
func (r *ExpenseRepository) List(ctx context.Context, userID uint, f ExpenseFilter) ([]models.Expense, int64, error) {
	d := dialectOf(r.db)
	query := r.scoped(ctx, userID)
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Start != nil {
		query = query.Where(d.expenseTime+" >= ?", d.timeArg(*f.Start))
	}
	if f.End != nil {
		query = query.Where(d.expenseTime+" <= ?", d.timeArg(*f.End))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计记录数失败: %w", err)
	}

	expenses := []models.Expense{}
	offset := (f.Page - 1) * f.PageSize
	if err := query.Order(d.expenseTime + " DESC, created_at DESC").
		Offset(offset).
		Limit(f.PageSize).
		Find(&expenses).Error; err != nil {
		return nil, 0, fmt.Errorf("查询消费记录失败: %w", err)
	}
	return expenses, total, nil
}

// ListInRange 窗口内的全部记录（导出用）
func (r *ExpenseRepository) ListInRange(ctx context.Context, userID uint, w analytics.Window) ([]models.Expense, error) {
	d := dialectOf(r.db)
	expenses := []models.Expense{}
	if err := r.inWindow(r.scoped(ctx, userID), w).
		Order(d.expenseTime + " DESC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("查询消费记录失败: %w", err)
	}
	return expenses, nil
}

// SumAmount 窗口内金额合计，没有记录时为 0
func (r *ExpenseRepository) SumAmount(ctx context.Context, userID uint, w analytics.Window) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.inWindow(r.scoped(ctx, userID), w).
		Select("COALESCE(SUM(amount), 0)").
		Row().
		Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum amount: %w", err)
	}
	return total, nil
}

// TotalsInWindow 窗口内合计与笔数
func (r *ExpenseRepository) TotalsInWindow(ctx context.Context, userID uint, w analytics.Window) (models.PeriodTotal, error) {
	var out models.PeriodTotal
	if err := r.inWindow(r.scoped(ctx, userID), w).
		Select("COALESCE(SUM(amount), 0), COUNT(*)").
		Row().
		Scan(&out.Total, &out.Count); err != nil {
		return models.PeriodTotal{}, fmt.Errorf("totals in window: %w", err)
	}
	return out, nil
}

// GroupByCategory 窗口内按类别汇总，合计降序；合计相同时最早插入的类别在前
func (r *ExpenseRepository) GroupByCategory(ctx context.Context, userID uint, w analytics.Window) ([]models.CategoryBreakdown, error) {
	var rows []models.CategoryBreakdown
	if err := r.inWindow(r.scoped(ctx, userID), w).
		Select("category, SUM(amount) AS total, COUNT(*) AS count, AVG(amount) AS average").
		Group("category").
		Order("total DESC, MIN(id) ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}
	return rows, nil
}

type categoryInsightRow struct {
	Category         string
	TotalSpent       decimal.Decimal
	TransactionCount int64
	AverageAmount    decimal.Decimal
	MaxAmount        decimal.Decimal
	MinAmount        decimal.Decimal
	LastTransaction  sqlTime
}

// GroupByCategoryAllTime 全部历史按类别汇总
func (r *ExpenseRepository) GroupByCategoryAllTime(ctx context.Context, userID uint) ([]models.CategoryInsight, error) {
	d := dialectOf(r.db)
	var rows []categoryInsightRow
	if err := r.scoped(ctx, userID).
		Select("category, SUM(amount) AS total_spent, COUNT(*) AS transaction_count, " +
			"AVG(amount) AS average_amount, MAX(amount) AS max_amount, MIN(amount) AS min_amount, " +
			"MAX(" + d.expenseTime + ") AS last_transaction").
		Group("category").
		Order("total_spent DESC, MIN(id) ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("group by category (all time): %w", err)
	}

	out := make([]models.CategoryInsight, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.CategoryInsight{
			Category:         row.Category,
			TotalSpent:       row.TotalSpent,
			TransactionCount: row.TransactionCount,
			AverageAmount:    row.AverageAmount,
			MaxAmount:        row.MaxAmount,
			MinAmount:        row.MinAmount,
			LastTransaction:  row.LastTransaction.Time,
		})
	}
	return out, nil
}

// SumByMonth 按自然月分组，一次查询覆盖整个窗口，只返回有记录的月份
func (r *ExpenseRepository) SumByMonth(ctx context.Context, userID uint, w analytics.Window) ([]models.MonthTotal, error) {
	d := dialectOf(r.db)
	var rows []models.MonthTotal
	if err := r.inWindow(r.scoped(ctx, userID), w).
		Select(d.year + " AS year, " + d.month + " AS month, SUM(amount) AS total, COUNT(*) AS count").
		Group(d.year + ", " + d.month).
		Order("year ASC, month ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("sum by month: %w", err)
	}
	return rows, nil
}

// GroupByDayOfWeek 窗口内按星期汇总
func (r *ExpenseRepository) GroupByDayOfWeek(ctx context.Context, userID uint, w analytics.Window) ([]models.DayPattern, error) {
	d := dialectOf(r.db)
	var rows []models.DayPattern
	if err := r.inWindow(r.scoped(ctx, userID), w).
		Select(d.dayOfWeek + " AS day_index, SUM(amount) AS total, COUNT(*) AS count").
		Group(d.dayOfWeek).
		Order("day_index ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("group by day of week: %w", err)
	}
	return rows, nil
}

// TopN 窗口内金额最高的 n 笔
func (r *ExpenseRepository) TopN(ctx context.Context, userID uint, w analytics.Window, n int) ([]models.Expense, error) {
	d := dialectOf(r.db)
	var rows []models.Expense
	if err := r.inWindow(r.scoped(ctx, userID), w).
		Order("amount DESC, " + d.expenseTime + " DESC, id DESC").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("top expenses: %w", err)
	}
	return rows, nil
}
