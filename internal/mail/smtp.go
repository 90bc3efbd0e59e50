package mail

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hugh/go-folio/pkg/config"
)

// SMTPSender submits plain-text mail. smtp.SendMail upgrades with STARTTLS
// whenever the server advertises it, and PlainAuth refuses to run without TLS
// except against localhost.
type SMTPSender struct {
	addr string
	host string
	user string
	pass string
	from string
	name string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		addr: cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort),
		host: cfg.SMTPHost,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.From,
		name: cfg.FromName,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body := s.build(msg)
	auth := smtp.PlainAuth("", s.user, s.pass, s.host)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, auth, s.from, []string{msg.To}, body)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("sending mail: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending mail: %w", err)
		}
		return nil
	}
}

func (s *SMTPSender) build(msg Message) []byte {
	from := s.from
	if s.name != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.name), s.from)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}
