package dto

import "github.com/hugh/go-folio/internal/database/models"

type PublishResponse struct {
	Message string `json:"message"`
	Slug    string `json:"slug"`
}

type ProjectsResponse struct {
	Projects []models.Project `json:"projects"`
}
