package analytics

import (
	"context"
	"sort"

	"expensetracker/models"

	"github.com/shopspring/decimal"
)

// memStore 内存版 Store，按 ID 顺序视为插入顺序
type memStore struct {
	expenses []models.Expense
	failOn   map[string]error
}

func newMemStore(expenses ...models.Expense) *memStore {
	for i := range expenses {
		if expenses[i].ID == 0 {
			expenses[i].ID = uint(i + 1)
		}
	}
	return &memStore{expenses: expenses, failOn: map[string]error{}}
}

func (s *memStore) filter(userID uint, w *Window) []models.Expense {
	var out []models.Expense
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if w != nil && !w.Contains(e.ExpenseTime) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *memStore) SumAmount(_ context.Context, userID uint, w Window) (decimal.Decimal, error) {
	if err := s.failOn["SumAmount"]; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range s.filter(userID, &w) {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (s *memStore) TotalsInWindow(_ context.Context, userID uint, w Window) (models.PeriodTotal, error) {
	if err := s.failOn["TotalsInWindow"]; err != nil {
		return models.PeriodTotal{}, err
	}
	out := models.PeriodTotal{Total: decimal.Zero}
	for _, e := range s.filter(userID, &w) {
		out.Total = out.Total.Add(e.Amount)
		out.Count++
	}
	return out, nil
}

func (s *memStore) GroupByCategory(_ context.Context, userID uint, w Window) ([]models.CategoryBreakdown, error) {
	if err := s.failOn["GroupByCategory"]; err != nil {
		return nil, err
	}
	var out []models.CategoryBreakdown
	index := map[string]int{}
	for _, e := range s.filter(userID, &w) {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, models.CategoryBreakdown{Category: e.Category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	for i := range out {
		out[i].Average = out[i].Total.Div(decimal.NewFromInt(out[i].Count))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

func (s *memStore) GroupByCategoryAllTime(_ context.Context, userID uint) ([]models.CategoryInsight, error) {
	if err := s.failOn["GroupByCategoryAllTime"]; err != nil {
		return nil, err
	}
	var out []models.CategoryInsight
	index := map[string]int{}
	for _, e := range s.filter(userID, nil) {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, models.CategoryInsight{
				Category:   e.Category,
				TotalSpent: decimal.Zero,
				MaxAmount:  e.Amount,
				MinAmount:  e.Amount,
			})
		}
		row := &out[i]
		row.TotalSpent = row.TotalSpent.Add(e.Amount)
		row.TransactionCount++
		row.MaxAmount = decimal.Max(row.MaxAmount, e.Amount)
		row.MinAmount = decimal.Min(row.MinAmount, e.Amount)
		if e.ExpenseTime.After(row.LastTransaction) {
			row.LastTransaction = e.ExpenseTime
		}
	}
	for i := range out {
		out[i].AverageAmount = out[i].TotalSpent.Div(decimal.NewFromInt(out[i].TransactionCount))
	}
	return out, nil
}

func (s *memStore) SumByMonth(_ context.Context, userID uint, w Window) ([]models.MonthTotal, error) {
	if err := s.failOn["SumByMonth"]; err != nil {
		return nil, err
	}
	var out []models.MonthTotal
	index := map[yearMonth]int{}
	for _, e := range s.filter(userID, &w) {
		key := yearMonth{e.ExpenseTime.Year(), int(e.ExpenseTime.Month())}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, models.MonthTotal{Year: key.year, Month: key.month, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	return out, nil
}

func (s *memStore) GroupByDayOfWeek(_ context.Context, userID uint, w Window) ([]models.DayPattern, error) {
	if err := s.failOn["GroupByDayOfWeek"]; err != nil {
		return nil, err
	}
	byDay := map[int]*models.DayPattern{}
	for _, e := range s.filter(userID, &w) {
		day := int(e.ExpenseTime.Weekday()) + 1
		p, ok := byDay[day]
		if !ok {
			p = &models.DayPattern{DayIndex: day, Total: decimal.Zero}
			byDay[day] = p
		}
		p.Total = p.Total.Add(e.Amount)
		p.Count++
	}
	// 故意乱序返回，由引擎负责排序
	var out []models.DayPattern
	for _, p := range byDay {
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) TopN(_ context.Context, userID uint, w Window, n int) ([]models.Expense, error) {
	if err := s.failOn["TopN"]; err != nil {
		return nil, err
	}
	rows := s.filter(userID, &w)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Amount.GreaterThan(rows[j].Amount) })
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}
