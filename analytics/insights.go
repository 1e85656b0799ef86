package analytics

import (
	"context"
	"fmt"
	"sort"

	"expensetracker/models"
)

// CategoryInsights 用户全部历史的类别画像，忽略任何时间范围，按累计金额降序。
// 与 Summary 中的 CategoryBreakdown 是两回事：后者只统计当前周期。
func (e *Engine) CategoryInsights(ctx context.Context, userID uint) ([]models.CategoryInsight, error) {
	rows, err := e.store.GroupByCategoryAllTime(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("category insights: %w", err)
	}
	if rows == nil {
		rows = []models.CategoryInsight{}
	}
	for i := range rows {
		rows[i].AverageAmount = rows[i].AverageAmount.Round(models.MoneyPlaces)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalSpent.GreaterThan(rows[j].TotalSpent)
	})
	return rows, nil
}
