package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hugh/go-folio/internal/ai"
	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/api/middleware"
	"github.com/hugh/go-folio/internal/plans"
)

const maxResumeBytes = 10 << 20

type AIHandler struct {
	enforcer *plans.Enforcer
	writer   *ai.Writer
	resumes  *ai.ResumeExtractor
	logger   *slog.Logger
}

func NewAIHandler(enforcer *plans.Enforcer, writer *ai.Writer, resumes *ai.ResumeExtractor, logger *slog.Logger) *AIHandler {
	return &AIHandler{
		enforcer: enforcer,
		writer:   writer,
		resumes:  resumes,
		logger:   logger,
	}
}

// Generate drafts portfolio copy. The plan gate runs before the body is
// even read so a free account never reaches the model.
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if d := h.enforcer.CheckAIAllowed(user.Plan); !d.Allowed {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: d.Message()})
		return
	}

	var req dto.GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	kind, err := ai.ParseContentType(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid type"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	content, err := h.writer.Generate(r.Context(), kind, req.Context)
	if err != nil {
		h.logger.Error("ai generation failed", "user_id", user.ID, "type", kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "AI generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, dto.GenerateResponse{Content: content})
}

func (h *AIHandler) ExtractResume(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if d := h.enforcer.CheckAIAllowed(user.Plan); !d.Allowed {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Resume parsing requires Pro subscription"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "A resume file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "A resume file is required"})
		return
	}

	result, err := h.resumes.Extract(r.Context(), data)
	if err != nil {
		if errors.Is(err, ai.ErrNoText) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "No text could be extracted from the resume"})
			return
		}
		h.logger.Error("resume extraction failed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Resume extraction failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
