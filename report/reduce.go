package report

import (
	"sort"

	"palmera/models"

	"github.com/shopspring/decimal"
)

// 占位名称
const (
	NoData       = "Sin datos"
	Unspecified  = "Sin especificar"
	UnknownStaff = "Desconocido"
)

var hundred = decimal.NewFromInt(100)

// SumIncome 收入合计
func SumIncome(rows []models.IncomeRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Price)
	}
	return total
}

// SumExpenses 支出合计
func SumExpenses(rows []models.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}

// UniqueClients 不同客户名数量，按字符串完全相等判断（区分大小写与空白）
func UniqueClients(rows []models.IncomeRecord) int {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.ClientName] = struct{}{}
	}
	return len(seen)
}

// AverageTicket 平均客单价，count 为 0 时返回 0
func AverageTicket(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), 2)
}

// PercentageOfTotal part 占 total 的百分比（保留一位小数），total 为 0 时返回 0
func PercentageOfTotal(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(total, 1)
}

// Standing 排行榜中的一行
type Standing struct {
	Name    string          `json:"name"`
	Total   Money           `json:"total"`
	Count   int             `json:"count"`
	Average Money           `json:"average"`
	Share   decimal.Decimal `json:"share"` // 占总额百分比
}

// KeyFunc 收入记录的分组名称
type KeyFunc func(r models.IncomeRecord) string

// ByManicurist 按记录上的美甲师名分组，缺失时为 "Sin especificar"
func ByManicurist(r models.IncomeRecord) string {
	if r.ManicuristName == "" {
		return Unspecified
	}
	return r.ManicuristName
}

// ByMemberName 按记录所有者资料中的美甲师名分组，缺失时为 "Desconocido"
func ByMemberName(members []Member) KeyFunc {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.ManicuristName
	}
	return func(r models.IncomeRecord) string {
		if n := names[r.UserID]; n != "" {
			return n
		}
		return UnknownStaff
	}
}

// Leaderboard 按 key 分组求和，总额降序，总额相同按名称升序
func Leaderboard(rows []models.IncomeRecord, key KeyFunc) []Standing {
	if key == nil {
		key = ByManicurist
	}
	type acc struct {
		total decimal.Decimal
		count int
	}
	groups := map[string]*acc{}
	grand := decimal.Zero
	for _, r := range rows {
		name := key(r)
		g, ok := groups[name]
		if !ok {
			g = &acc{total: decimal.Zero}
			groups[name] = g
		}
		g.total = g.total.Add(r.Price)
		g.count++
		grand = grand.Add(r.Price)
	}

	out := make([]Standing, 0, len(groups))
	for name, g := range groups {
		out = append(out, Standing{
			Name:    name,
			Total:   NewMoney(g.total),
			Count:   g.count,
			Average: NewMoney(AverageTicket(g.total, g.count)),
			Share:   PercentageOfTotal(g.total, grand),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total.Decimal); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopPerformer 排行第一的名称，没有数据时为 "Sin datos"
func TopPerformer(standings []Standing) string {
	if len(standings) == 0 {
		return NoData
	}
	return standings[0].Name
}
