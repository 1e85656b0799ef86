package analytics

import (
	"context"
	"fmt"
	"time"

	"expensetracker/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var hundred = decimal.NewFromInt(100)

// Compare 本月与上月对比。两个窗口都由 now 推导，不接受外部传入的周期。
func (e *Engine) Compare(ctx context.Context, userID uint, now time.Time) (*models.ComparisonSummary, error) {
	var current, last models.PeriodTotal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = e.store.TotalsInWindow(gctx, userID, MonthWindow(now, 0))
		if err != nil {
			return fmt.Errorf("current month totals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		last, err = e.store.TotalsInWindow(gctx, userID, MonthWindow(now, -1))
		if err != nil {
			return fmt.Errorf("last month totals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.ComparisonSummary{
		CurrentMonth: current,
		LastMonth:    last,
		Change:       ComputeChange(current.Total, last.Total),
	}, nil
}

// ComputeChange 计算变化额和变化百分比；上月为 0 时百分比记为 0
func ComputeChange(current, last decimal.Decimal) models.Change {
	amount := current.Sub(last)
	percentage := decimal.Zero
	if last.IsPositive() {
		percentage = amount.Div(last).Mul(hundred).Round(models.MoneyPlaces)
	}
	return models.Change{Amount: amount, Percentage: percentage}
}
