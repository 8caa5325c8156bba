// internal/domain/models/stats.go
package models

// OrganizationStats summarizes the non-flagged reviews of one organization.
// It only exists for organizations with at least one such review.
type OrganizationStats struct {
	OrganizationID  string  `json:"organization_id"`
	AverageRating   float64 `json:"average_rating"`
	AverageSocial   int     `json:"average_social"`
	AverageWorkload int     `json:"average_workload"`
	AverageValue    int     `json:"average_value"`
	ReviewCount     int     `json:"review_count"`
}
