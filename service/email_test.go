package service

import (
	"testing"

	"palmera/config"
	"palmera/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateVerificationEmailBody(t *testing.T) {
	s := newTestEmailService()
	body := s.generateVerificationEmailBody("123456")
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "Palmera Estudio")
	assert.Contains(t, body, "15 minutos")
}

func TestGenerateSummaryEmailBody(t *testing.T) {
	s := newTestEmailService()
	d := report.Dashboard{
		TodayIncome:   report.NewMoney(decimal.RequireFromString("45")),
		MonthIncome:   report.NewMoney(decimal.RequireFromString("120.5")),
		UniqueClients: 3,
		TopManicurist: "Tamar",
		Leaderboard: []report.Standing{
			{Name: "Tamar <b>", Total: report.NewMoney(decimal.RequireFromString("80")), Count: 2},
		},
	}
	body := s.generateSummaryEmailBody(d, "01/05/2024")
	assert.Contains(t, body, "Resumen del 01/05/2024")
	assert.Contains(t, body, "45.00 €")
	assert.Contains(t, body, "120.50 €")
	assert.Contains(t, body, "Tamar &lt;b&gt;")
	assert.NotContains(t, body, "Tamar <b>")

	empty := s.generateSummaryEmailBody(report.Dashboard{}, "02/05/2024")
	assert.Contains(t, empty, report.NoData)
}

func TestEmailService_Disabled(t *testing.T) {
	s := newTestEmailService()
	assert.False(t, s.Enabled())
	assert.ErrorIs(t, s.SendVerificationCode("a@b.es", "123456"), ErrEmailDisabled)
	assert.ErrorIs(t, s.SendDailySummary([]string{"a@b.es"}, report.Dashboard{}, "hoy"), ErrEmailDisabled)

	var nilService *EmailService
	assert.False(t, nilService.Enabled())
}
