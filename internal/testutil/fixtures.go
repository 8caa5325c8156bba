package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateReview inserts a review with explicit vibes and returns it.
func (f *Fixtures) CreateReview(ctx context.Context, orgID string, rating float64, social, workload, value int) models.Review {
	f.t.Helper()
	return f.InsertReview(ctx, models.Review{
		OrganizationID: orgID,
		Rating:         rating,
		VibeSocial:     models.IntPtr(social),
		VibeWorkload:   models.IntPtr(workload),
		VibeValue:      models.IntPtr(value),
	})
}

// CreateFlaggedReview inserts a review that has already been flagged.
func (f *Fixtures) CreateFlaggedReview(ctx context.Context, orgID string, rating float64) models.Review {
	f.t.Helper()
	return f.InsertReview(ctx, models.Review{
		OrganizationID: orgID,
		Rating:         rating,
		Flagged:        true,
	})
}

// InsertReview stores r as-is, filling ID and CreatedAt when unset.
// Vibe fields left nil are stored absent, like records written before vibes existed.
func (f *Fixtures) InsertReview(ctx context.Context, r models.Review) models.Review {
	f.t.Helper()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := f.db.Collection("reviews").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test review: %v", err)
	}
	return r
}

// CreateSubmission records a ledger entry for an already hashed device.
func (f *Fixtures) CreateSubmission(ctx context.Context, deviceHash, orgID string) models.Submission {
	f.t.Helper()
	s := models.Submission{
		ID:             primitive.NewObjectID(),
		DeviceHash:     deviceHash,
		OrganizationID: orgID,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("submissions").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test submission: %v", err)
	}
	return s
}
