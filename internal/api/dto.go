package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/models"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	BrandName         string `json:"brand_name"`
	MainKeyword       string `json:"main_keyword"`
	LSIKeywords       string `json:"lsi_keywords"`
	SecondaryKeywords string `json:"secondary_keywords"`
	OutputLanguage    string `json:"output_language"`
}

// Validate enforces the required creation fields.
func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BrandName, validation.Required),
		validation.Field(&r.MainKeyword, validation.Required),
	)
}

// ProjectListResponse wraps a paginated project listing.
type ProjectListResponse struct {
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Projects   []models.Project `json:"projects"`
}
