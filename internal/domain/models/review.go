// internal/domain/models/review.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review field limits.
const (
	MinRating         = 0.5
	MaxRating         = 5.0
	RatingStep        = 0.5
	MinVibe           = 0
	MaxVibe           = 100
	DefaultVibe       = 50
	MaxTextContentLen = 500
	MaxUserMajorLen   = 50
)

// Review is an anonymous rating of one organization.
//
// A review is immutable once inserted, except Flagged, which only ever moves
// from false to true. The vibe fields are pointers because older records may
// not carry them; read them through Vibes so the default is applied in one place.
type Review struct {
	ID             primitive.ObjectID `bson:"_id" json:"-"`
	OrganizationID string             `bson:"organization_id"`
	Rating         float64            `bson:"rating"`
	VibeSocial     *int               `bson:"vibe_social,omitempty"`
	VibeWorkload   *int               `bson:"vibe_workload,omitempty"`
	VibeValue      *int               `bson:"vibe_value,omitempty"`
	TextContent    string             `bson:"text_content,omitempty"`
	UserMajor      string             `bson:"user_major,omitempty"`
	Flagged        bool               `bson:"flagged"`
	CreatedAt      time.Time          `bson:"created_at"`
}

// Vibes holds the three vibe metrics with defaults already substituted.
type Vibes struct {
	Social   int
	Workload int
	Value    int
}

// Vibes returns the review's vibe metrics, substituting DefaultVibe for any
// metric the record does not carry.
func (r Review) Vibes() Vibes {
	return Vibes{
		Social:   vibeOrDefault(r.VibeSocial),
		Workload: vibeOrDefault(r.VibeWorkload),
		Value:    vibeOrDefault(r.VibeValue),
	}
}

func vibeOrDefault(v *int) int {
	if v == nil {
		return DefaultVibe
	}
	return *v
}

// IntPtr is a small helper for building reviews with explicit vibe values.
func IntPtr(v int) *int { return &v }

// ReviewDraft is what a visitor submits. The server assigns ID and CreatedAt.
type ReviewDraft struct {
	OrganizationID string  `json:"organization_id" validate:"required,max=64" label:"Organization"`
	Rating         float64 `json:"rating" validate:"required,gte=0.5,lte=5,halfstep" label:"Rating"`
	VibeSocial     *int    `json:"vibe_social,omitempty" validate:"omitempty,gte=0,lte=100" label:"Social vibe"`
	VibeWorkload   *int    `json:"vibe_workload,omitempty" validate:"omitempty,gte=0,lte=100" label:"Workload vibe"`
	VibeValue      *int    `json:"vibe_value,omitempty" validate:"omitempty,gte=0,lte=100" label:"Value vibe"`
	TextContent    string  `json:"text_content" validate:"max=500,plaintext" label:"Review text"`
	UserMajor      string  `json:"user_major" validate:"max=50,plaintext" label:"Major"`
}

// ReviewView is the public JSON shape of a stored review.
type ReviewView struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Rating         float64   `json:"rating"`
	VibeSocial     int       `json:"vibe_social"`
	VibeWorkload   int       `json:"vibe_workload"`
	VibeValue      int       `json:"vibe_value"`
	TextContent    string    `json:"text_content,omitempty"`
	UserMajor      string    `json:"user_major,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// View converts a stored review to its public form.
func (r Review) View() ReviewView {
	v := r.Vibes()
	return ReviewView{
		ID:             r.ID.Hex(),
		OrganizationID: r.OrganizationID,
		Rating:         r.Rating,
		VibeSocial:     v.Social,
		VibeWorkload:   v.Workload,
		VibeValue:      v.Value,
		TextContent:    r.TextContent,
		UserMajor:      r.UserMajor,
		CreatedAt:      r.CreatedAt,
	}
}

// Review builds the record to insert. ID and CreatedAt are left for the store.
func (d ReviewDraft) Review() Review {
	return Review{
		OrganizationID: d.OrganizationID,
		Rating:         d.Rating,
		VibeSocial:     d.VibeSocial,
		VibeWorkload:   d.VibeWorkload,
		VibeValue:      d.VibeValue,
		TextContent:    d.TextContent,
		UserMajor:      d.UserMajor,
	}
}
