package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/hugh/go-folio/internal/mail"
)

type Handler struct {
	sender mail.Sender
	logger *slog.Logger
}

func NewHandler(sender mail.Sender, logger *slog.Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeVerificationEmail, h.HandleVerificationEmail)
}

func (h *Handler) HandleVerificationEmail(ctx context.Context, t *asynq.Task) error {
	var payload VerificationEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" || payload.VerifyLink == "" {
		return fmt.Errorf("incomplete payload: %w", asynq.SkipRetry)
	}

	if err := h.sender.Send(ctx, mail.VerificationMessage(payload.Email, payload.VerifyLink)); err != nil {
		h.logger.Error("verification email failed", "email", payload.Email, "error", err)
		return err
	}

	h.logger.Info("verification email sent", "email", payload.Email)
	return nil
}

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands verification mail to the worker so delivery is retried
// independently of the signup request.
type QueueNotifier struct {
	client Enqueuer
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) NotifyVerification(ctx context.Context, email, link string) error {
	task, err := NewVerificationEmailTask(VerificationEmailPayload{Email: email, VerifyLink: link})
	if err != nil {
		return err
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue verification email: %w", err)
	}
	return nil
}
