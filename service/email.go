package service

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"expensetracker/config"
	"expensetracker/models"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("邮件服务未启用，请配置 EXPENSE_EMAIL_ENABLED=true")

// MonthlyReport 月度消费报告
type MonthlyReport struct {
	Username   string
	Currency   string
	Month      time.Time
	Comparison *models.ComparisonSummary
	Categories []models.CategoryBreakdown
	Budget     decimal.Decimal
}

// BudgetUsage 预算使用百分比，未设置预算时返回 false
func (r *MonthlyReport) BudgetUsage() (decimal.Decimal, bool) {
	if !r.Budget.IsPositive() || r.Comparison == nil {
		return decimal.Zero, false
	}
	return r.Comparison.CurrentMonth.Total.Div(r.Budget).Mul(decimal.NewFromInt(100)).Round(2), true
}

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendMonthlyReport 发送月度消费报告
func (s *EmailService) SendMonthlyReport(toEmail string, report *MonthlyReport) error {
	if !s.cfg.Enabled {
		return ErrEmailDisabled
	}

	subject := fmt.Sprintf("【记账本】%s 消费报告", report.Month.Format("2006-01"))
	return s.sendEmail(toEmail, subject, s.generateReportBody(report))
}

func formatMoney(currency string, d decimal.Decimal) string {
	return currency + " " + d.StringFixed(models.MoneyPlaces)
}

// generateReportBody 生成报告邮件内容
func (s *EmailService) generateReportBody(r *MonthlyReport) string {
	var rows strings.Builder
	for _, c := range r.Categories {
		fmt.Fprintf(&rows, `<tr><td><span class="dot" style="background:%s"></span>%s</td><td>%d</td><td>%s</td></tr>`,
			models.CategoryColor(c.Category), html.EscapeString(c.Category), c.Count, formatMoney(r.Currency, c.Total))
	}
	if len(r.Categories) == 0 {
		rows.WriteString(`<tr><td colspan="3">本月暂无消费记录</td></tr>`)
	}

	cmp := r.Comparison
	if cmp == nil {
		cmp = &models.ComparisonSummary{}
	}
	trend := "持平"
	switch {
	case cmp.Change.Amount.IsPositive():
		trend = "增加"
	case cmp.Change.Amount.IsNegative():
		trend = "减少"
	}

	budget := "未设置月度预算"
	if usage, ok := r.BudgetUsage(); ok {
		budget = fmt.Sprintf("预算 %s，已使用 %s%%", formatMoney(r.Currency, r.Budget), usage.StringFixed(2))
		if usage.GreaterThan(decimal.NewFromInt(100)) {
			budget += "（已超支）"
		}
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 16px; }
        table { width: 100%%; border-collapse: collapse; }
        td { padding: 8px; border-bottom: 1px solid #eee; color: #333; }
        .dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%%; margin-right: 8px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 %s 消费报告</h1>
        </div>
        <div class="content">
            <p>尊敬的 <strong>%s</strong>，您好！</p>
            <p>本月共消费 <strong>%s</strong>（%d 笔），上月 %s（%d 笔），%s %s（%s%%）。</p>
            <p>%s</p>
            <table>%s</table>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`,
		r.Month.Format("2006-01"),
		html.EscapeString(r.Username),
		formatMoney(r.Currency, cmp.CurrentMonth.Total), cmp.CurrentMonth.Count,
		formatMoney(r.Currency, cmp.LastMonth.Total), cmp.LastMonth.Count,
		trend, formatMoney(r.Currency, cmp.Change.Amount.Abs()), cmp.Change.Percentage.StringFixed(2),
		budget,
		rows.String(),
	)
}

// sendEmail 发送邮件
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
