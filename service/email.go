package service

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"palmera/config"
	"palmera/report"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("邮件服务未启用，请配置 PALMERA_EMAIL_ENABLED=true")

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 是否已启用
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg != nil && s.cfg.Enabled
}

// SendVerificationCode 发送注册确认验证码
func (s *EmailService) SendVerificationCode(to, code string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	return s.sendEmail(to, "Palmera Estudio · Confirma tu cuenta", s.generateVerificationEmailBody(code))
}

// SendDailySummary 发送每日汇总
func (s *EmailService) SendDailySummary(to []string, d report.Dashboard, day string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	if len(to) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Palmera Estudio · Resumen del %s", day)
	body := s.generateSummaryEmailBody(d, day)
	var errs []error
	for _, addr := range to {
		if err := s.sendEmail(addr, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

const emailStyle = `
        body { font-family: 'Helvetica Neue', Arial, sans-serif; background: #fdf6f8; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.08); }
        .header { background: linear-gradient(135deg, #db2777, #be185d); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 36px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 18px; }
        .code-box { background: #fdf2f8; border: 2px dashed #db2777; border-radius: 12px; padding: 28px; text-align: center; margin: 28px 0; }
        .code { font-size: 36px; font-weight: bold; color: #be185d; letter-spacing: 8px; font-family: 'Courier New', monospace; }
        table { width: 100%; border-collapse: collapse; margin: 12px 0 24px; }
        td, th { padding: 8px 6px; border-bottom: 1px solid #f3e8ee; text-align: left; font-size: 14px; }
        td.num, th.num { text-align: right; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }`

// generateVerificationEmailBody 生成验证码邮件内容
func (s *EmailService) generateVerificationEmailBody(code string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>%s
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💅 Palmera Estudio</h1>
        </div>
        <div class="content">
            <p>¡Hola!</p>
            <p>Para confirmar tu cuenta introduce este código:</p>
            <div class="code-box">
                <span class="code">%s</span>
            </div>
            <p>El código caduca en <strong>15 minutos</strong>. Si no has creado una cuenta, ignora este email.</p>
        </div>
        <div class="footer">
            <p>Este email se ha enviado automáticamente, no respondas.</p>
        </div>
    </div>
</body>
</html>
`, emailStyle, html.EscapeString(code))
}

// generateSummaryEmailBody 生成每日汇总邮件内容
func (s *EmailService) generateSummaryEmailBody(d report.Dashboard, day string) string {
	var rows strings.Builder
	for _, st := range d.Leaderboard {
		fmt.Fprintf(&rows, `<tr><td>%s</td><td class="num">%d</td><td class="num">%s €</td></tr>`,
			html.EscapeString(st.Name), st.Count, st.Total.String())
	}
	if rows.Len() == 0 {
		fmt.Fprintf(&rows, `<tr><td colspan="3">%s</td></tr>`, html.EscapeString(report.NoData))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>%s
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💅 Resumen del %s</h1>
        </div>
        <div class="content">
            <table>
                <tr><th>Ingresos de hoy</th><td class="num">%s €</td></tr>
                <tr><th>Gastos de hoy</th><td class="num">%s €</td></tr>
                <tr><th>Neto de hoy</th><td class="num">%s €</td></tr>
                <tr><th>Ingresos del mes</th><td class="num">%s €</td></tr>
                <tr><th>Gastos del mes</th><td class="num">%s €</td></tr>
                <tr><th>Neto del mes</th><td class="num">%s €</td></tr>
                <tr><th>Clientas únicas del mes</th><td class="num">%d</td></tr>
                <tr><th>Manicurista destacada</th><td class="num">%s</td></tr>
            </table>
            <table>
                <tr><th>Manicurista</th><th class="num">Servicios</th><th class="num">Total</th></tr>
                %s
            </table>
        </div>
        <div class="footer">
            <p>Este email se ha enviado automáticamente, no respondas.</p>
        </div>
    </div>
</body>
</html>
`, emailStyle, html.EscapeString(day),
		d.TodayIncome.String(), d.TodayExpenses.String(), d.TodayNet.String(),
		d.MonthIncome.String(), d.MonthExpenses.String(), d.MonthNet.String(),
		d.UniqueClients, html.EscapeString(d.TopManicurist), rows.String())
}
