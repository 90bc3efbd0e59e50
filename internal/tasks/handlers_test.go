package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/mail"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewVerificationEmailTask(t *testing.T) {
	task, err := NewVerificationEmailTask(VerificationEmailPayload{Email: "ada@example.com", VerifyLink: "https://x/verify"})
	require.NoError(t, err)
	assert.Equal(t, TypeVerificationEmail, task.Type())

	var payload VerificationEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "ada@example.com", payload.Email)
}

func TestHandleVerificationEmail(t *testing.T) {
	t.Run("sends the message", func(t *testing.T) {
		sender := &recordingSender{}
		handler := NewHandler(sender, testLogger())

		task, err := NewVerificationEmailTask(VerificationEmailPayload{Email: "ada@example.com", VerifyLink: "https://x/verify"})
		require.NoError(t, err)

		require.NoError(t, handler.HandleVerificationEmail(context.Background(), task))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Verify your PortfolioAI account", sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].Text, "https://x/verify")
	})

	t.Run("invalid payload is not retried", func(t *testing.T) {
		handler := NewHandler(&recordingSender{}, testLogger())

		err := handler.HandleVerificationEmail(context.Background(), asynq.NewTask(TypeVerificationEmail, []byte("invalid json")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal payload")
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("send failure is returned for retry", func(t *testing.T) {
		handler := NewHandler(&recordingSender{err: errors.New("smtp down")}, testLogger())

		task, err := NewVerificationEmailTask(VerificationEmailPayload{Email: "ada@example.com", VerifyLink: "https://x/verify"})
		require.NoError(t, err)

		err = handler.HandleVerificationEmail(context.Background(), task)
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestRegisterHandlers(t *testing.T) {
	mux := asynq.NewServeMux()
	NewHandler(&recordingSender{}, testLogger()).RegisterHandlers(mux)

	h, pattern := mux.Handler(asynq.NewTask(TypeVerificationEmail, nil))
	assert.NotNil(t, h)
	assert.Equal(t, TypeVerificationEmail, pattern)
}

func TestQueueNotifier(t *testing.T) {
	var _ auth.VerificationNotifier = (*QueueNotifier)(nil)

	enq := &fakeEnqueuer{}
	n := NewQueueNotifier(enq)

	require.NoError(t, n.NotifyVerification(context.Background(), "ada@example.com", "https://x/verify"))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeVerificationEmail, enq.tasks[0].Type())

	enq.err = errors.New("redis down")
	assert.Error(t, n.NotifyVerification(context.Background(), "ada@example.com", "https://x/verify"))
}
