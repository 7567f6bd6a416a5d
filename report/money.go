// Package report 收入/支出记录的纯函数汇总
//
// 所有金额使用 decimal 计算，不经过浮点数。
package report

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money 金额，JSON 输出固定两位小数的字符串
type Money struct {
	decimal.Decimal
}

// NewMoney 包装 decimal
func NewMoney(d decimal.Decimal) Money {
	return Money{d}
}

// MarshalJSON 输出 "45.00"
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatMoney(m.Decimal))
}

// String 两位小数
func (m Money) String() string {
	return FormatMoney(m.Decimal)
}

// FormatMoney 两位小数，零值为 "0.00"
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
