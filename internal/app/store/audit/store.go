// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategorySubmission = "submission"
	CategoryModeration = "moderation"
)

// Event types
const (
	EventReviewCreated      = "review_created"
	EventReviewRejected     = "review_rejected"
	EventSubmissionRecorded = "submission_recorded"
	EventReviewFlagged      = "review_flagged"
	EventReviewFlagFailed   = "review_flag_failed"
)

// Event is one audit record. Visitors are anonymous, so there is no actor;
// IP and user agent are the only request context kept.
type Event struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp      time.Time          `bson:"timestamp"`
	Category       string             `bson:"category"`
	EventType      string             `bson:"event_type"`
	OrganizationID string             `bson:"organization_id,omitempty"`
	ReviewID       string             `bson:"review_id,omitempty"`
	IP             string             `bson:"ip,omitempty"`
	UserAgent      string             `bson:"user_agent,omitempty"`
	Success        bool               `bson:"success"`
	FailureReason  string             `bson:"failure_reason,omitempty"`
	Details        map[string]string  `bson:"details,omitempty"`
}

// QueryFilter narrows Query and CountByFilter. Zero fields match everything.
type QueryFilter struct {
	Category       string
	EventType      string
	OrganizationID string
	ReviewID       string
	Since          *time.Time
	Limit          int64
	Offset         int64
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.OrganizationID != "" {
		q["organization_id"] = f.OrganizationID
	}
	if f.ReviewID != "" {
		q["review_id"] = f.ReviewID
	}
	if f.Since != nil {
		q["timestamp"] = bson.M{"$gte": *f.Since}
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}
