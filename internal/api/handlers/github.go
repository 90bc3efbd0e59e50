package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/api/validation"
	"github.com/hugh/go-folio/internal/database/models"
)

// ProjectSource lists a GitHub user's repositories as portfolio projects.
type ProjectSource interface {
	Projects(ctx context.Context, username string) ([]models.Project, error)
}

type GitHubHandler struct {
	source ProjectSource
	logger *slog.Logger
}

func NewGitHubHandler(source ProjectSource, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{source: source, logger: logger}
}

func (h *GitHubHandler) Repos(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !validation.IsValidGitHubUsername(username) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid GitHub username"})
		return
	}

	projects, err := h.source.Projects(r.Context(), username)
	if err != nil {
		h.logger.Warn("github import failed", "username", username, "error", err)
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to fetch GitHub repos"})
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectsResponse{Projects: projects})
}
