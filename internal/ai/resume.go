package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

var ErrNoText = errors.New("no text could be extracted from the document")

const resumeSystemPrompt = "Extract structured portfolio data from resume text. Return JSON format."

const resumePrompt = `Extract from this resume:
%s

Return JSON with: name, role, bio (2 sentences), skills (array), projects (array with title, description), education (array with degree, institution, year), experience (array with title, company, duration, description).`

type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

type PDFTextExtractor struct{}

func (PDFTextExtractor) ExtractText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

type ResumeResult struct {
	ExtractedText  string `json:"extracted_text"`
	StructuredData any    `json:"structured_data"`
}

type ResumeExtractor struct {
	text    TextExtractor
	llm     Completer
	timeout time.Duration
}

func NewResumeExtractor(text TextExtractor, llm Completer, timeout time.Duration) *ResumeExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ResumeExtractor{text: text, llm: llm, timeout: timeout}
}

// Extract pulls text out of a resume document and asks the model to
// structure it. StructuredData holds decoded JSON, or the raw completion
// when the model ignored the JSON instruction.
func (e *ResumeExtractor) Extract(ctx context.Context, data []byte) (*ResumeResult, error) {
	text, err := e.text.ExtractText(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content, err := e.llm.Complete(ctx, CompletionRequest{
		System:      resumeSystemPrompt,
		Prompt:      fmt.Sprintf(resumePrompt, text),
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("structuring resume: %w", err)
	}

	result := &ResumeResult{ExtractedText: text, StructuredData: content}
	raw := json.RawMessage(stripFences(content))
	if json.Valid(raw) {
		result.StructuredData = raw
	}
	return result, nil
}

// Some models wrap JSON in markdown fences even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
