package report

import (
	"time"

	"palmera/models"
)

// Window 闭区间日期窗口，From/To 为空表示不限
type Window struct {
	From models.Day `json:"from,omitempty"`
	To   models.Day `json:"to,omitempty"`
}

// Today 当天
func Today(now time.Time) Window {
	d := models.DayOf(now)
	return Window{From: d, To: d}
}

// Month now 所在自然月
func Month(now time.Time) Window {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return Window{From: models.DayOf(first), To: models.DayOf(last)}
}

// Contains d 是否落在窗口内
func (w Window) Contains(d models.Day) bool {
	if !w.From.IsZero() && d.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && d.After(w.To) {
		return false
	}
	return true
}

// Period 西语描述，例如 "del 01/03/2024 al 31/03/2024"
func (w Window) Period() string {
	switch {
	case !w.From.IsZero() && !w.To.IsZero():
		return "del " + displayDay(w.From) + " al " + displayDay(w.To)
	case !w.From.IsZero():
		return "desde el " + displayDay(w.From)
	case !w.To.IsZero():
		return "hasta el " + displayDay(w.To)
	default:
		return "de todos los tiempos"
	}
}

func displayDay(d models.Day) string {
	return d.Time().Format("02/01/2006")
}

// IncomeIn 过滤窗口内的收入记录
func IncomeIn(w Window, rows []models.IncomeRecord) []models.IncomeRecord {
	out := make([]models.IncomeRecord, 0, len(rows))
	for _, r := range rows {
		if w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// ExpensesIn 过滤窗口内的支出记录
func ExpensesIn(w Window, rows []models.ExpenseRecord) []models.ExpenseRecord {
	out := make([]models.ExpenseRecord, 0, len(rows))
	for _, r := range rows {
		if w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}
