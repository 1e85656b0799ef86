package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"expensetracker/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	// TrendMonths 月度趋势固定展示最近 12 个月（含本月）
	TrendMonths = 12
	// TopExpensesLimit 单笔金额最高的记录条数
	TopExpensesLimit = 5
)

// Store 统计所需的存储层查询。所有查询只读，且只访问 userID 名下的记录。
type Store interface {
	SumAmount(ctx context.Context, userID uint, w Window) (decimal.Decimal, error)
	TotalsInWindow(ctx context.Context, userID uint, w Window) (models.PeriodTotal, error)
	// GroupByCategory 按合计降序，合计相同时先出现的类别在前
	GroupByCategory(ctx context.Context, userID uint, w Window) ([]models.CategoryBreakdown, error)
	GroupByCategoryAllTime(ctx context.Context, userID uint) ([]models.CategoryInsight, error)
	// SumByMonth 只返回有记录的月份
	SumByMonth(ctx context.Context, userID uint, w Window) ([]models.MonthTotal, error)
	GroupByDayOfWeek(ctx context.Context, userID uint, w Window) ([]models.DayPattern, error)
	TopN(ctx context.Context, userID uint, w Window, n int) ([]models.Expense, error)
}

// Engine 统计引擎，无状态，可并发使用
type Engine struct {
	store Store
}

// NewEngine 创建统计引擎
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Summary 计算 period 对应窗口内的全部统计。
// 任一子查询失败则整个请求失败，不返回部分填充的结果。
func (e *Engine) Summary(ctx context.Context, userID uint, keyword string, now time.Time) (*models.Summary, error) {
	period, window := ResolvePeriod(keyword, now)

	summary := &models.Summary{
		Period:    string(period),
		StartDate: window.Start,
		EndDate:   window.End,
	}

	// 各子查询写入 summary 的不同字段，互不影响
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := e.store.SumAmount(gctx, userID, window)
		if err != nil {
			return fmt.Errorf("total spent: %w", err)
		}
		summary.TotalSpent = total
		return nil
	})
	g.Go(func() error {
		breakdown, err := e.CategoryBreakdown(gctx, userID, window)
		if err != nil {
			return err
		}
		summary.CategoryBreakdown = breakdown
		return nil
	})
	g.Go(func() error {
		trend, err := e.MonthlyTrend(gctx, userID, now)
		if err != nil {
			return err
		}
		summary.MonthlyTrend = trend
		return nil
	})
	g.Go(func() error {
		pattern, err := e.DailyPattern(gctx, userID, window)
		if err != nil {
			return err
		}
		summary.DailyPattern = pattern
		return nil
	})
	g.Go(func() error {
		top, err := e.TopExpenses(gctx, userID, window)
		if err != nil {
			return err
		}
		summary.TopExpenses = top
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.DailyAverage = DailyAverage(summary.TotalSpent, window)
	return summary, nil
}

// CategoryBreakdown 窗口内按类别汇总，按合计降序
func (e *Engine) CategoryBreakdown(ctx context.Context, userID uint, w Window) ([]models.CategoryBreakdown, error) {
	rows, err := e.store.GroupByCategory(ctx, userID, w)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	if rows == nil {
		rows = []models.CategoryBreakdown{}
	}
	for i := range rows {
		rows[i].Average = rows[i].Average.Round(models.MoneyPlaces)
	}
	// 稳定排序，保留存储层给出的平局顺序
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.GreaterThan(rows[j].Total)
	})
	return rows, nil
}

// MonthlyTrend 最近 12 个自然月（含 now 所在月）的合计，从早到晚。
// 与请求的统计周期无关；没有记录的月份补 0。
func (e *Engine) MonthlyTrend(ctx context.Context, userID uint, now time.Time) ([]models.TrendPoint, error) {
	span := Window{
		Start: MonthWindow(now, -(TrendMonths - 1)).Start,
		End:   MonthWindow(now, 0).End,
	}
	rows, err := e.store.SumByMonth(ctx, userID, span)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	return buildTrend(rows, now), nil
}

type yearMonth struct {
	year  int
	month int
}

func buildTrend(rows []models.MonthTotal, now time.Time) []models.TrendPoint {
	byMonth := make(map[yearMonth]models.MonthTotal, len(rows))
	for _, row := range rows {
		byMonth[yearMonth{row.Year, row.Month}] = row
	}

	points := make([]models.TrendPoint, 0, TrendMonths)
	for offset := -(TrendMonths - 1); offset <= 0; offset++ {
		start := MonthWindow(now, offset).Start
		point := models.TrendPoint{
			Month: start.Month().String()[:3],
			Year:  start.Year(),
			Total: decimal.Zero,
		}
		if row, ok := byMonth[yearMonth{start.Year(), int(start.Month())}]; ok {
			point.Total = row.Total
			point.Count = row.Count
		}
		points = append(points, point)
	}
	return points
}

// DailyPattern 窗口内按星期汇总，1=周日 ... 7=周六，升序
func (e *Engine) DailyPattern(ctx context.Context, userID uint, w Window) ([]models.DayPattern, error) {
	rows, err := e.store.GroupByDayOfWeek(ctx, userID, w)
	if err != nil {
		return nil, fmt.Errorf("daily pattern: %w", err)
	}
	if rows == nil {
		rows = []models.DayPattern{}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].DayIndex < rows[j].DayIndex
	})
	return rows, nil
}

// TopExpenses 窗口内金额最高的 5 笔，按金额降序
func (e *Engine) TopExpenses(ctx context.Context, userID uint, w Window) ([]models.Expense, error) {
	rows, err := e.store.TopN(ctx, userID, w, TopExpensesLimit)
	if err != nil {
		return nil, fmt.Errorf("top expenses: %w", err)
	}
	if rows == nil {
		rows = []models.Expense{}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.GreaterThan(rows[j].Amount)
	})
	if len(rows) > TopExpensesLimit {
		rows = rows[:TopExpensesLimit]
	}
	return rows, nil
}

// DailyAverage 总额 / 窗口天数，保留两位小数
func DailyAverage(total decimal.Decimal, w Window) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(w.Days())), models.MoneyPlaces)
}
