package report

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"palmera/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(client, manicurist string, day models.Day, price string) models.IncomeRecord {
	return models.IncomeRecord{
		ClientName:     client,
		ManicuristName: manicurist,
		Date:           day,
		Price:          decimal.RequireFromString(price),
		UserID:         "u1",
	}
}

func TestSumIncome_ExactCents(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var rows []models.IncomeRecord
	cents := int64(0)
	for i := 0; i < 500; i++ {
		c := rng.Int63n(10000) + 1
		cents += c
		rows = append(rows, models.IncomeRecord{Price: decimal.New(c, -2)})
	}
	assert.True(t, decimal.New(cents, -2).Equal(SumIncome(rows)))

	// 0.1 + 0.2 不产生浮点误差
	rows = []models.IncomeRecord{{Price: decimal.RequireFromString("0.10")}, {Price: decimal.RequireFromString("0.20")}}
	assert.Equal(t, "0.30", FormatMoney(SumIncome(rows)))
}

func TestSumExpenses(t *testing.T) {
	rows := []models.ExpenseRecord{
		{Amount: decimal.RequireFromString("12.35")},
		{Amount: decimal.RequireFromString("7.65")},
	}
	assert.Equal(t, "20.00", FormatMoney(SumExpenses(rows)))
	assert.Equal(t, "0.00", FormatMoney(SumExpenses(nil)))
}

func TestUniqueClients_ExactMatch(t *testing.T) {
	rows := []models.IncomeRecord{
		{ClientName: "Ana"},
		{ClientName: "Ana"},
		{ClientName: "ana"},
		{ClientName: "Ana "},
		{ClientName: "Lucía"},
	}
	assert.Equal(t, 4, UniqueClients(rows))
	assert.Equal(t, 0, UniqueClients(nil))
}

func TestLeaderboard_OrderedByTotal(t *testing.T) {
	rows := []models.IncomeRecord{
		row("a", "Tamar", "2024-03-01", "10"),
		row("b", "Yuli", "2024-03-01", "40"),
		row("c", "Tamar", "2024-03-02", "25"),
		row("d", "", "2024-03-02", "5"),
		row("e", "Anna", "2024-03-02", "35"),
	}
	board := Leaderboard(rows, nil)
	require.Len(t, board, 4)

	for i := 1; i < len(board); i++ {
		assert.False(t, board[i].Total.GreaterThan(board[i-1].Total.Decimal),
			"%s (%s) ranked after %s (%s)", board[i].Name, board[i].Total, board[i-1].Name, board[i-1].Total)
	}
	assert.Equal(t, "Yuli", board[0].Name)
	assert.Equal(t, Unspecified, board[3].Name)

	var tamar Standing
	for _, s := range board {
		if s.Name == "Tamar" {
			tamar = s
		}
	}
	assert.Equal(t, 2, tamar.Count)
	assert.Equal(t, "17.50", tamar.Average.String())
	assert.Equal(t, "30.4", tamar.Share.String())
}

func TestLeaderboard_TiesBrokenByName(t *testing.T) {
	rows := []models.IncomeRecord{
		row("a", "Yuli", "2024-03-01", "20"),
		row("b", "Anna", "2024-03-01", "20"),
	}
	board := Leaderboard(rows, ByManicurist)
	assert.Equal(t, "Anna", board[0].Name)
	assert.Equal(t, "Anna", TopPerformer(board))
}

func TestAverageTicketAndPercentage_ZeroGuards(t *testing.T) {
	assert.True(t, AverageTicket(decimal.NewFromInt(50), 0).IsZero())
	assert.Equal(t, "16.67", FormatMoney(AverageTicket(decimal.NewFromInt(50), 3)))

	assert.True(t, PercentageOfTotal(decimal.NewFromInt(10), decimal.Zero).IsZero())
	assert.True(t, PercentageOfTotal(decimal.Zero, decimal.Zero).IsZero())
	assert.Equal(t, "25", PercentageOfTotal(decimal.NewFromInt(10), decimal.NewFromInt(40)).String())
}

func TestTopPerformer_NoData(t *testing.T) {
	assert.Equal(t, NoData, TopPerformer(nil))
	assert.Equal(t, NoData, TopPerformer(Leaderboard(nil, nil)))
}

func TestWindow(t *testing.T) {
	now := time.Date(2024, 2, 14, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, Window{From: "2024-02-14", To: "2024-02-14"}, Today(now))
	assert.Equal(t, Window{From: "2024-02-01", To: "2024-02-29"}, Month(now))

	w := Window{From: "2024-02-01"}
	assert.True(t, w.Contains("2030-01-01"))
	assert.False(t, w.Contains("2024-01-31"))
	assert.True(t, Window{}.Contains("1999-12-31"))

	assert.Equal(t, "del 01/02/2024 al 29/02/2024", Month(now).Period())
	assert.Equal(t, "desde el 01/02/2024", w.Period())
	assert.Equal(t, "hasta el 29/02/2024", Window{To: "2024-02-29"}.Period())
	assert.Equal(t, "de todos los tiempos", Window{}.Period())
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	income := []models.IncomeRecord{
		row("Ana", "Tamar", "2024-03-15", "15.00"),
		row("Ana", "Tamar", "2024-03-15", "25.00"),
		row("Eva", "Yuli", "2024-03-02", "30.00"),
		row("Old", "Yuli", "2024-02-28", "99.00"),
	}
	expenses := []models.ExpenseRecord{
		{Amount: decimal.RequireFromString("10.00"), Date: "2024-03-15"},
		{Amount: decimal.RequireFromString("5.50"), Date: "2024-03-01"},
	}

	d := BuildDashboard(now, income, expenses)
	assert.Equal(t, models.Day("2024-03-15"), d.Today)
	assert.Equal(t, "40.00", d.TodayIncome.String())
	assert.Equal(t, "10.00", d.TodayExpenses.String())
	assert.Equal(t, "30.00", d.TodayNet.String())
	assert.Equal(t, "70.00", d.MonthIncome.String())
	assert.Equal(t, "15.50", d.MonthExpenses.String())
	assert.Equal(t, "54.50", d.MonthNet.String())
	assert.Equal(t, 2, d.UniqueClients)
	assert.Equal(t, "Tamar", d.TopManicurist)
	assert.False(t, d.Empty)
}

func TestBuildDashboard_EmptyRendersZeros(t *testing.T) {
	d := BuildDashboard(time.Now(), nil, nil)
	assert.True(t, d.Empty)
	assert.Equal(t, EmptyMessage, d.EmptyMessage)
	assert.Equal(t, NoData, d.TopManicurist)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	for _, key := range []string{"today_income", "today_expenses", "today_net", "month_income", "month_expenses", "month_net"} {
		assert.Equal(t, "0.00", out[key], key)
	}
}

func TestBuildManicuristDay(t *testing.T) {
	rows := []models.IncomeRecord{
		row("Ana", "Tamar", "2024-03-15", "15.00"),
		row("Eva", "Tamar", "2024-03-15", "20.50"),
		row("Old", "Tamar", "2024-03-14", "99.00"),
	}
	day := BuildManicuristDay("2024-03-15", rows)
	assert.Equal(t, "35.50", day.Total.String())
	assert.Equal(t, 2, day.Clients)
	assert.Len(t, day.Records, 2)
}

func TestBuildAdminReport(t *testing.T) {
	members := []Member{
		{UserID: "u1", ManicuristName: "Tamar", Role: models.RoleEmployee},
		{UserID: "u2", ManicuristName: "", Role: models.RoleAdmin},
	}
	income := []models.IncomeRecord{
		{UserID: "u1", Price: decimal.RequireFromString("30"), Date: "2024-03-01"},
		{UserID: "u1", Price: decimal.RequireFromString("20"), Date: "2024-03-02"},
		{UserID: "u2", Price: decimal.RequireFromString("10"), Date: "2024-03-02"},
		{UserID: "u1", Price: decimal.RequireFromString("500"), Date: "2024-04-01"},
	}
	expenses := []models.ExpenseRecord{
		{UserID: "u2", Amount: decimal.RequireFromString("12.5"), Date: "2024-03-03"},
	}

	r := BuildAdminReport(Window{From: "2024-03-01", To: "2024-03-31"}, income, expenses, members)
	assert.Equal(t, 2, r.TotalUsers)
	assert.Equal(t, "60.00", r.TotalIncome.String())
	assert.Equal(t, "12.50", r.TotalExpenses.String())
	assert.Equal(t, "47.50", r.NetProfit.String())
	assert.Equal(t, 3, r.TotalServices)
	assert.Equal(t, "20.00", r.AverageTicket.String())
	assert.Equal(t, "Tamar", r.TopManicurist)
	require.Len(t, r.Leaderboard, 2)
	assert.Equal(t, UnknownStaff, r.Leaderboard[1].Name)
	assert.Equal(t, "83.3", r.Leaderboard[0].Share.String())

	require.Len(t, r.Users, 2)
	assert.Equal(t, "50.00", r.Users[0].TotalIncome.String())
	assert.Equal(t, 2, r.Users[0].ServicesCount)
	assert.Equal(t, "12.50", r.Users[1].TotalExpenses.String())
}

func TestBuildAdminReport_NoRecords(t *testing.T) {
	r := BuildAdminReport(Window{}, nil, nil, nil)
	assert.Equal(t, "0.00", r.TotalIncome.String())
	assert.Equal(t, "0.00", r.AverageTicket.String())
	assert.Equal(t, NoData, r.TopManicurist)
	assert.Empty(t, r.Leaderboard)
}
