package models

import "github.com/shopspring/decimal"

// 金额统一按数字输出（而不是带引号的字符串），与前端图表的数据格式一致
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// MoneyPlaces 金额保留的小数位（最小货币单位）
const MoneyPlaces = 2

// HasMinorUnitPrecision 判断金额是否最多两位小数
func HasMinorUnitPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}
