package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeVerificationEmail = "mail:verification"
)

const verificationMaxRetry = 5

// VerificationEmailPayload carries one signup's verification link
type VerificationEmailPayload struct {
	Email      string `json:"email"`
	VerifyLink string `json:"verify_link"`
}

func NewVerificationEmailTask(payload VerificationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeVerificationEmail, data,
		asynq.MaxRetry(verificationMaxRetry),
		asynq.Queue("critical"),
	), nil
}
