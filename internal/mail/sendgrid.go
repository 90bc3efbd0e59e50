package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/hugh/go-folio/pkg/config"
)

type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridSender(cfg config.MailConfig) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGridKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.From),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	message := sgmail.NewSingleEmail(s.from, msg.Subject, sgmail.NewEmail("", msg.To), msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
