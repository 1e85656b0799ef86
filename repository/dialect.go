package repository

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// sqliteTimeLayout SQLite 中按本地时间比较、分组用的格式
const sqliteTimeLayout = "2006-01-02 15:04:05"

// dialect 不同数据库下的日期函数
// 两种数据库都按服务器本地时间分组，与 analytics 的窗口一致
type dialect struct {
	expenseTime string // 比较、排序用的消费时间表达式
	dayOfWeek   string // 1=周日 ... 7=周六
	year        string
	month       string
	wallClock   bool // 参数按本地时间文本传入
}

var (
	// DSN 中 loc=Local，DATETIME 存的就是本地时间
	mysqlDialect = dialect{
		expenseTime: "expense_time",
		dayOfWeek:   "DAYOFWEEK(expense_time)",
		year:        "YEAR(expense_time)",
		month:       "MONTH(expense_time)",
	}
	// 存储格式为 "2006-01-02 15:04:05.999999999-07:00"，取前 19 位即本地时间，
	// strftime 直接作用于带偏移的文本会先换算成 UTC
	sqliteDialect = dialect{
		expenseTime: "substr(expense_time, 1, 19)",
		dayOfWeek:   "CAST(strftime('%w', substr(expense_time, 1, 19)) AS INTEGER) + 1",
		year:        "CAST(substr(expense_time, 1, 4) AS INTEGER)",
		month:       "CAST(substr(expense_time, 6, 2) AS INTEGER)",
		wallClock:   true,
	}
)

// timeArg 与 expenseTime 比较的参数
func (d dialect) timeArg(t time.Time) interface{} {
	if d.wallClock {
		return t.In(time.Local).Format(sqliteTimeLayout)
	}
	return t
}

func dialectOf(db *gorm.DB) dialect {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return sqliteDialect
	}
	return mysqlDialect
}

// sqlTime 兼容聚合函数返回的时间：MySQL 为 time.Time，SQLite 为字符串
type sqlTime struct {
	time.Time
}

var sqlTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Scan 实现 sql.Scanner
func (t *sqlTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("无法将 %T 转换为时间", value)
	}
}

// Value 实现 driver.Valuer
func (t sqlTime) Value() (driver.Value, error) {
	return t.Time, nil
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range sqlTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("无法解析时间: %q", s)
}
