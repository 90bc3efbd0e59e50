package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/api/middleware"
	"github.com/hugh/go-folio/internal/api/validation"
	"github.com/hugh/go-folio/internal/portfolios"
	"github.com/hugh/go-folio/internal/storage"
)

const (
	// Upper bound on what is read off the wire. The image limit itself is
	// enforced by the service and is much smaller.
	maxCreateBody = 10 << 20
	maxJSONBody   = 1 << 20
)

type PortfolioHandler struct {
	service *portfolios.Service
	logger  *slog.Logger
}

func NewPortfolioHandler(service *portfolios.Service, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{service: service, logger: logger}
}

func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create accepts either a plain JSON document or a multipart form with the
// document in "data" and an optional "profile_image" file.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)

	var data, image []byte
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxCreateBody); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid portfolio data"})
			return
		}
		data = []byte(r.FormValue("data"))

		file, _, err := r.FormFile("profile_image")
		switch {
		case err == nil:
			image, err = io.ReadAll(file)
			file.Close()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid profile image"})
				return
			}
		case !errors.Is(err, http.ErrMissingFile):
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid profile image"})
			return
		}
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid portfolio data"})
			return
		}
		data = body
	}

	p, err := h.service.Create(r.Context(), middleware.GetUser(r.Context()), data, image)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), middleware.GetUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req portfolios.UpdateInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	p, err := h.service.Update(r.Context(), middleware.GetUser(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.GetUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Portfolio deleted"})
}

func (h *PortfolioHandler) Publish(w http.ResponseWriter, r *http.Request) {
	slug, err := h.service.Publish(r.Context(), middleware.GetUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PublishResponse{Message: "Portfolio published", Slug: slug})
}

// GetPublic serves a published portfolio to anonymous readers.
func (h *PortfolioHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !validation.IsValidSlug(slug) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Portfolio not found"})
		return
	}

	p, err := h.service.GetPublic(r.Context(), slug)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PortfolioHandler) writeError(w http.ResponseWriter, err error) {
	var quota *portfolios.QuotaError
	var invalid *portfolios.ValidationError

	switch {
	case errors.As(err, &quota):
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: quota.Error()})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid portfolio data", Details: invalid.Details})
	case errors.Is(err, storage.ErrImageTooLarge):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Image too large. Max size is 1MB."})
	case errors.Is(err, storage.ErrInvalidImage):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid profile image"})
	case errors.Is(err, portfolios.ErrUploadsDisabled):
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Image uploads are not available"})
	case errors.Is(err, portfolios.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Portfolio not found"})
	default:
		h.logger.Error("portfolio request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}
