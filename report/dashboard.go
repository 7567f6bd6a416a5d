package report

import (
	"time"

	"palmera/models"

	"github.com/shopspring/decimal"
)

// EmptyMessage 没有任何记录时的提示
const EmptyMessage = "Aún no hay registros. Empieza registrando tu primer servicio."

// Dashboard 首页统计
type Dashboard struct {
	Today         models.Day `json:"today"`
	Month         Window     `json:"month"`
	TodayIncome   Money      `json:"today_income"`
	TodayExpenses Money      `json:"today_expenses"`
	TodayNet      Money      `json:"today_net"`
	MonthIncome   Money      `json:"month_income"`
	MonthExpenses Money      `json:"month_expenses"`
	MonthNet      Money      `json:"month_net"`
	UniqueClients int        `json:"unique_clients"`
	TopManicurist string     `json:"top_manicurist"`
	Leaderboard   []Standing `json:"leaderboard"`
	Empty         bool       `json:"empty"`
	EmptyMessage  string     `json:"empty_message,omitempty"`
}

// BuildDashboard 由记录计算首页统计，记录可以超出本月范围
func BuildDashboard(now time.Time, income []models.IncomeRecord, expenses []models.ExpenseRecord) Dashboard {
	today := Today(now)
	month := Month(now)

	todayIncome := SumIncome(IncomeIn(today, income))
	todayExpenses := SumExpenses(ExpensesIn(today, expenses))
	monthRows := IncomeIn(month, income)
	monthIncome := SumIncome(monthRows)
	monthExpenses := SumExpenses(ExpensesIn(month, expenses))
	standings := Leaderboard(monthRows, ByManicurist)

	d := Dashboard{
		Today:         today.From,
		Month:         month,
		TodayIncome:   NewMoney(todayIncome),
		TodayExpenses: NewMoney(todayExpenses),
		TodayNet:      NewMoney(todayIncome.Sub(todayExpenses)),
		MonthIncome:   NewMoney(monthIncome),
		MonthExpenses: NewMoney(monthExpenses),
		MonthNet:      NewMoney(monthIncome.Sub(monthExpenses)),
		UniqueClients: UniqueClients(monthRows),
		TopManicurist: TopPerformer(standings),
		Leaderboard:   standings,
		Empty:         len(income) == 0 && len(expenses) == 0,
	}
	if d.Empty {
		d.EmptyMessage = EmptyMessage
	}
	return d
}

// ManicuristDay 美甲师当天统计
type ManicuristDay struct {
	Date    models.Day            `json:"date"`
	Total   Money                 `json:"total"`
	Clients int                   `json:"clients"`
	Records []models.IncomeRecord `json:"records"`
}

// BuildManicuristDay 汇总一位美甲师当天的记录
func BuildManicuristDay(day models.Day, rows []models.IncomeRecord) ManicuristDay {
	todays := IncomeIn(Window{From: day, To: day}, rows)
	return ManicuristDay{
		Date:    day,
		Total:   NewMoney(SumIncome(todays)),
		Clients: len(todays),
		Records: todays,
	}
}

// Member 参与汇总的用户资料
type Member struct {
	UserID         string      `json:"user_id"`
	Email          string      `json:"email"`
	FullName       string      `json:"full_name"`
	ManicuristName string      `json:"manicurist_name"`
	IsActive       bool        `json:"is_active"`
	Role           models.Role `json:"role"`
}

// UserStat 单个用户的统计
type UserStat struct {
	Member
	TotalIncome   Money `json:"total_income"`
	TotalExpenses Money `json:"total_expenses"`
	ServicesCount int   `json:"services_count"`
}

// AdminReport 管理后台汇总
type AdminReport struct {
	Window        Window     `json:"window"`
	Period        string     `json:"period"`
	TotalUsers    int        `json:"total_users"`
	TotalIncome   Money      `json:"total_income"`
	TotalExpenses Money      `json:"total_expenses"`
	NetProfit     Money      `json:"net_profit"`
	TotalServices int        `json:"total_services"`
	AverageTicket Money      `json:"average_ticket"`
	TopManicurist string     `json:"top_manicurist"`
	Users         []UserStat `json:"users"`
	Leaderboard   []Standing `json:"leaderboard"`
}

// BuildAdminReport 按窗口汇总所有用户的记录
// 排行按记录所有者的美甲师名分组
func BuildAdminReport(w Window, income []models.IncomeRecord, expenses []models.ExpenseRecord, members []Member) AdminReport {
	income = IncomeIn(w, income)
	expenses = ExpensesIn(w, expenses)

	type acc struct {
		income   decimal.Decimal
		expenses decimal.Decimal
		count    int
	}
	perUser := make(map[string]*acc, len(members))
	get := func(id string) *acc {
		a, ok := perUser[id]
		if !ok {
			a = &acc{income: decimal.Zero, expenses: decimal.Zero}
			perUser[id] = a
		}
		return a
	}
	for _, r := range income {
		a := get(r.UserID)
		a.income = a.income.Add(r.Price)
		a.count++
	}
	for _, r := range expenses {
		a := get(r.UserID)
		a.expenses = a.expenses.Add(r.Amount)
	}

	users := make([]UserStat, 0, len(members))
	for _, m := range members {
		a := get(m.UserID)
		users = append(users, UserStat{
			Member:        m,
			TotalIncome:   NewMoney(a.income),
			TotalExpenses: NewMoney(a.expenses),
			ServicesCount: a.count,
		})
	}

	totalIncome := SumIncome(income)
	totalExpenses := SumExpenses(expenses)
	standings := Leaderboard(income, ByMemberName(members))

	return AdminReport{
		Window:        w,
		Period:        w.Period(),
		TotalUsers:    len(members),
		TotalIncome:   NewMoney(totalIncome),
		TotalExpenses: NewMoney(totalExpenses),
		NetProfit:     NewMoney(totalIncome.Sub(totalExpenses)),
		TotalServices: len(income),
		AverageTicket: NewMoney(AverageTicket(totalIncome, len(income))),
		TopManicurist: TopPerformer(standings),
		Users:         users,
		Leaderboard:   standings,
	}
}
