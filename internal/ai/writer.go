package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidType = errors.New("invalid content type")

type ContentType string

const (
	ContentAbout   ContentType = "about"
	ContentProject ContentType = "project"
	ContentSkills  ContentType = "skills"
)

const writerSystemPrompt = "You are a professional portfolio content writer. Create compelling, concise, and recruiter-friendly content."

var promptTemplates = map[ContentType]string{
	ContentAbout:   "Write a professional 'About Me' section for a portfolio based on this context: %s. Make it 2-3 paragraphs, highlighting skills and passion.",
	ContentProject: "Rewrite this project description professionally and concisely: %s. Focus on impact and technologies used.",
	ContentSkills:  "Create a compelling skills summary based on these skills: %s. Make it one paragraph highlighting expertise.",
}

func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if _, ok := promptTemplates[t]; !ok {
		return "", ErrInvalidType
	}
	return t, nil
}

// Writer drafts portfolio copy. Callers must have passed the AI plan gate.
type Writer struct {
	llm     Completer
	timeout time.Duration
}

func NewWriter(llm Completer, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Writer{llm: llm, timeout: timeout}
}

func (w *Writer) Generate(ctx context.Context, kind ContentType, input string) (string, error) {
	tmpl, ok := promptTemplates[kind]
	if !ok {
		return "", ErrInvalidType
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	content, err := w.llm.Complete(ctx, CompletionRequest{
		System:      writerSystemPrompt,
		Prompt:      fmt.Sprintf(tmpl, input),
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("generating %s content: %w", kind, err)
	}
	return content, nil
}
