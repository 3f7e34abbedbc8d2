// Package email notifies customers about resolved payment requests.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/config"
	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/events"
)

type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	addr string
	host string
	from string
	auth smtp.Auth // nil for local relays such as MailHog
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		host: cfg.SMTPHost,
		from: cfg.From,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return s
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	msg := buildRFC822(s.from, to, subject, htmlBody)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s via %s: %w", to, s.addr, err)
	}
	return nil
}

func buildRFC822(from, to, subject, html string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&buf, "\r\n%s\r\n", html)
	return buf.Bytes()
}

// LogSender logs instead of sending. Used when no SMTP relay is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(to, subject, htmlBody string) error {
	s.Logger.Info("email", zap.String("to", to), zap.String("subject", subject), zap.Int("bytes", len(htmlBody)))
	return nil
}

// NewSender picks SMTP when a host is configured.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) Sender {
	if cfg.SMTPHost != "" {
		return NewSMTPSender(cfg)
	}
	return LogSender{Logger: logger.Named("email")}
}

var receiptTpl = template.Must(template.New("receipt").Parse(`
<h2>Thank you{{with .CustomerName}}, {{.}}{{end}}!</h2>
<p>Your payment for order <b>{{.OrderID}}</b> was received.</p>
{{with .ItemsDescription}}<p>{{.}}</p>{{end}}
<p>Amount: <b>{{.Currency}} {{.Amount}}</b></p>
<p>Payment reference: <b>{{.PaymentReference}}</b></p>
`))

var failureTpl = template.Must(template.New("failure").Parse(`
<h2>Your payment did not go through</h2>
<p>Order <b>{{.OrderID}}</b> for {{.Currency}} {{.Amount}} was not charged.</p>
{{with .Message}}<p>Reason: {{.}}</p>{{end}}
`))

func RenderReceipt(p events.PaymentOutcome) (string, error) {
	return render(receiptTpl, p)
}

func RenderFailure(p events.PaymentOutcome) (string, error) {
	return render(failureTpl, p)
}

func render(t *template.Template, p events.PaymentOutcome) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
