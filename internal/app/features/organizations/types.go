package organizations

import (
	"github.com/dalemusser/clubreviews/internal/app/catalog"
	"github.com/dalemusser/clubreviews/internal/app/system/paging"
	"github.com/dalemusser/clubreviews/internal/domain/models"
)

type listResponse struct {
	Organizations  []catalog.Listed `json:"organizations"`
	Featured       []catalog.Listed `json:"featured,omitempty"`
	Range          paging.Range     `json:"range"`
	StatsAvailable bool             `json:"stats_available"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type detailResponse struct {
	Organization models.Organization       `json:"organization"`
	About        string                    `json:"about"`
	Stats        *models.OrganizationStats `json:"stats"`
	RatingLabel  string                    `json:"rating_label,omitempty"`
	Reviews      []models.ReviewView       `json:"reviews"`
	ReviewCount  int                       `json:"review_count"`
}

type reviewsResponse struct {
	OrganizationID string              `json:"organization_id"`
	Reviews        []models.ReviewView `json:"reviews"`
}

type countResponse struct {
	OrganizationID string `json:"organization_id"`
	Count          int64  `json:"count"`
}

type statsResponse struct {
	OrganizationID string                    `json:"organization_id"`
	Stats          *models.OrganizationStats `json:"stats"`
}

func views(reviews []models.Review) []models.ReviewView {
	out := make([]models.ReviewView, len(reviews))
	for i, r := range reviews {
		out[i] = r.View()
	}
	return out
}
