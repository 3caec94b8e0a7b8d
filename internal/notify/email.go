package notify

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

// EmailConfig controls the SMTP alert channel.
type EmailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	To          string
	MinSeverity monitor.Severity
}

// Email sends alerts as multipart plain+HTML messages over SMTP.
type Email struct {
	cfg EmailConfig
	// send is swapped in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmail builds an email channel.
func NewEmail(cfg EmailConfig) *Email {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.MinSeverity == "" {
		cfg.MinSeverity = monitor.SeverityInformational
	}
	return &Email{cfg: cfg, send: smtp.SendMail}
}

func (e *Email) Name() string { return "email" }

func (e *Email) MinSeverity() monitor.Severity { return e.cfg.MinSeverity }

// Deliver sends the alert email. Missing SMTP credentials or recipient
// make the channel a configured no-op that reports failure.
func (e *Email) Deliver(_ context.Context, alert monitor.Alert) error {
	if e.cfg.Username == "" || e.cfg.Password == "" || e.cfg.To == "" {
		return fmt.Errorf("email channel not fully configured")
	}

	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	msg := e.buildMessage(alert)

	if err := e.send(addr, auth, e.cfg.From, []string{e.cfg.To}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (e *Email) buildMessage(alert monitor.Alert) []byte {
	emoji := severityEmoji[alert.Severity]
	subject := fmt.Sprintf("%s PolicyDiff: %s %s — %s",
		emoji, alert.Company, titleSeverity(alert.Severity), alert.PolicyName)

	plain := fmt.Sprintf(`PolicyDiff Alert — %s

%s (%s)

%s

Recommendation: %s
`, strings.ToUpper(string(alert.Severity)), alert.PolicyName, alert.Company,
		alert.Summary, alert.Recommendation)

	const boundary = "policydiff-alt-boundary"
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", e.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(plain)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(buildEmailHTML(alert))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func titleSeverity(s monitor.Severity) string {
	str := string(s)
	if str == "" {
		return ""
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

func buildEmailHTML(alert monitor.Alert) string {
	color, ok := severityColors[alert.Severity]
	if !ok {
		color = "#6B7280"
	}
	emoji := severityEmoji[alert.Severity]

	var changesHTML strings.Builder
	for _, change := range alert.KeyChanges {
		fmt.Fprintf(&changesHTML, `<li style="margin-bottom:8px;color:#374151;">%s</li>`, change)
	}
	changesSection := ""
	if changesHTML.Len() > 0 {
		changesSection = `<div style='margin-bottom:16px;'><h3 style='color:#111827;margin:0 0 8px 0;font-size:15px;'>Key Changes</h3><ul style='margin:0;padding-left:20px;'>` +
			changesHTML.String() + `</ul></div>`
	}

	return fmt.Sprintf(`
    <div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;max-width:600px;margin:0 auto;padding:20px;">
        <div style="background:linear-gradient(135deg,#1e293b,#334155);border-radius:12px;padding:24px;margin-bottom:20px;">
            <h1 style="color:white;margin:0;font-size:24px;">PolicyDiff Alert</h1>
            <p style="color:#94a3b8;margin:4px 0 0 0;font-size:14px;">Policy Change Detected</p>
        </div>
        <div style="background:white;border:1px solid #e5e7eb;border-radius:12px;padding:24px;margin-bottom:16px;">
            <div style="display:flex;align-items:center;margin-bottom:16px;">
                <span style="background:%s;color:white;padding:4px 12px;border-radius:20px;font-size:13px;font-weight:600;text-transform:uppercase;">
                    %s %s
                </span>
            </div>
            <h2 style="color:#111827;margin:0 0 4px 0;font-size:20px;">%s</h2>
            <p style="color:#6b7280;margin:0 0 16px 0;font-size:14px;">%s</p>
            <div style="background:#f9fafb;border-radius:8px;padding:16px;margin-bottom:16px;">
                <h3 style="color:#111827;margin:0 0 8px 0;font-size:15px;">Summary</h3>
                <p style="color:#374151;margin:0;font-size:14px;line-height:1.6;">%s</p>
            </div>
            %s
            <div style="background:#eff6ff;border-radius:8px;padding:16px;">
                <h3 style="color:#1e40af;margin:0 0 8px 0;font-size:15px;">Recommendation</h3>
                <p style="color:#1e40af;margin:0;font-size:14px;">%s</p>
            </div>
        </div>
        <p style="color:#9ca3af;font-size:12px;text-align:center;">
            Sent by PolicyDiff, your automated policy change monitor
        </p>
    </div>
    `, color, emoji, alert.Severity, alert.PolicyName, alert.Company,
		alert.Summary, changesSection, alert.Recommendation)
}
