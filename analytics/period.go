package analytics

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Period 统计周期
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ErrInvalidPeriod 未知的统计周期（仅严格模式下返回）
var ErrInvalidPeriod = errors.New("period 参数错误，可选值：week、month、year")

// Window 闭区间 [Start, End]
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains 判断 t 是否落在窗口内（含两端）
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days 窗口跨越的天数，向上取整，最少为 1。
// 按墙上时间计算，夏令时切换当月不会多算或少算一天。
func (w Window) Days() int {
	span := wallClock(w.End).Sub(wallClock(w.Start))
	days := int(math.Ceil(span.Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ParsePeriod 严格解析周期关键字，空串按 month 处理
func ParsePeriod(keyword string) (Period, error) {
	switch Period(strings.TrimSpace(keyword)) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodYear:
		return PeriodYear, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// ResolvePeriod 根据周期关键字和 now 计算时间窗口，未知关键字按 month 处理。
// now 由调用方在请求入口取一次，两端都基于同一个 now。
func ResolvePeriod(keyword string, now time.Time) (Period, Window) {
	period, err := ParsePeriod(keyword)
	if err != nil {
		period = PeriodMonth
	}

	switch period {
	case PeriodWeek:
		// 滚动 7 天，不对齐自然周
		return period, Window{Start: now.AddDate(0, 0, -7), End: now}
	case PeriodYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return period, Window{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Second)}
	default:
		return PeriodMonth, MonthWindow(now, 0)
	}
}

// MonthWindow 返回 now 所在月偏移 offset 个月后的整月窗口（0 为本月，-1 为上月）
func MonthWindow(now time.Time, offset int) Window {
	start := time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}
}
