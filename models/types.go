package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 表名常量，同时作为实时变更推送的订阅键
const (
	TableIncomeRecords  = "income_records"
	TableExpenseRecords = "expense_records"
	TableServices       = "services"
	TableManicurists    = "manicurists"
	TableUserProfiles   = "user_profiles"
	TableUserRoles      = "user_roles"
)

// FeedTables 可订阅变更的表
func FeedTables() []string {
	return []string{TableIncomeRecords, TableExpenseRecords, TableServices, TableManicurists}
}

// DayLayout 记录日期格式
const DayLayout = "2006-01-02"

// Day 日历日期（YYYY-MM-DD），不带时区与时间部分
type Day string

// ParseDay 解析 YYYY-MM-DD
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("fecha inválida %q: %w", s, err)
	}
	return Day(t.Format(DayLayout)), nil
}

// DayOf 取 t 所在的日历日期（按 t 自身时区）
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// Time 转为当天 00:00 UTC
func (d Day) Time() time.Time {
	t, _ := time.Parse(DayLayout, string(d))
	return t
}

// IsZero 是否为空日期
func (d Day) IsZero() bool {
	return d == ""
}

// Before 日期比较（同格式字符串可直接按字典序比较）
func (d Day) Before(o Day) bool { return d < o }

// After 日期比较
func (d Day) After(o Day) bool { return d > o }

// Value 实现 driver.Valuer
func (d Day) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

// Scan 实现 sql.Scanner，兼容 postgres(date→time.Time) 与 sqlite/mysql(文本)
func (d *Day) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Day(v.Format(DayLayout))
	case string:
		*d = Day(normalizeDayText(v))
	case []byte:
		*d = Day(normalizeDayText(string(v)))
	default:
		return fmt.Errorf("models.Day: tipo no soportado %T", value)
	}
	return nil
}

func normalizeDayText(s string) string {
	if len(s) >= len(DayLayout) {
		return s[:len(DayLayout)]
	}
	return s
}

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentTransfer     PaymentMethod = "transfer"
	PaymentMobileWallet PaymentMethod = "mobile_wallet"
)

// PaymentMethods 所有支付方式
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer, PaymentMobileWallet}
}

// 历史版本使用的西语标签
var legacyPaymentLabels = map[string]PaymentMethod{
	"efectivo":      PaymentCash,
	"tarjeta":       PaymentCard,
	"transferencia": PaymentTransfer,
	"bizum":         PaymentMobileWallet,
	"mobile-wallet": PaymentMobileWallet,
}

// ParsePaymentMethod 解析支付方式，兼容历史标签（不区分大小写）
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, m := range PaymentMethods() {
		if key == string(m) {
			return m, nil
		}
	}
	if m, ok := legacyPaymentLabels[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("método de pago desconocido: %q", s)
}

// Valid 是否为合法支付方式
func (p PaymentMethod) Valid() bool {
	for _, m := range PaymentMethods() {
		if p == m {
			return true
		}
	}
	return false
}

// Role 用户角色
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole 解析角色；历史值 manicurist 视为 employee，无法识别返回最低权限
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleEmployee
	}
}

// Valid 是否为合法角色
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// newID 生成 UUID 主键
// MoneyScale 金额列保留的小数位
const MoneyScale = 2

// IsCents 金额是否最多两位小数，可原样写入 decimal(10,2) 列
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
