package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugh/go-folio/pkg/config"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func NewSender(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Driver {
	case "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
			return nil, fmt.Errorf("smtp not configured")
		}
		return NewSMTPSender(cfg), nil
	case "sendgrid":
		if cfg.SendGridKey == "" {
			return nil, fmt.Errorf("sendgrid api key not configured")
		}
		return NewSendGridSender(cfg), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

const verificationSubject = "Verify your PortfolioAI account"

func VerificationMessage(to, link string) Message {
	text := fmt.Sprintf(`Hi 👋

Thanks for signing up to PortfolioAI!

Please verify your email by clicking the link below:

%s

If you didn't create this account, you can ignore this email.

– PortfolioAI Team
`, link)

	html := fmt.Sprintf(`<p>Hi 👋</p>
<p>Thanks for signing up to PortfolioAI!</p>
<p>Please verify your email by clicking the link below:</p>
<p><a href="%[1]s">%[1]s</a></p>
<p>If you didn't create this account, you can ignore this email.</p>
<p>– PortfolioAI Team</p>
`, link)

	return Message{To: to, Subject: verificationSubject, Text: text, HTML: html}
}

// Notifier delivers verification links synchronously through a Sender.
type Notifier struct {
	sender  Sender
	timeout time.Duration
}

func NewNotifier(sender Sender, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{sender: sender, timeout: timeout}
}

func (n *Notifier) NotifyVerification(ctx context.Context, email, link string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.sender.Send(ctx, VerificationMessage(email, link))
}

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail not sent, log driver active", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
