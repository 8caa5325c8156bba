// internal/app/store/reviews/reviewstore.go
package reviewstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubreviews/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubreviews/internal/app/system/stats"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the reviews collection name.
const Collection = "reviews"

// ErrNotFound is returned when no review has the given id.
var ErrNotFound = errors.New("review not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// visible matches reviews that have not been flagged. Records written before
// the flag existed have no field at all and count as visible.
func visible(orgID string) bson.M {
	f := bson.M{"flagged": bson.M{"$ne": true}}
	if orgID != "" {
		f["organization_id"] = orgID
	}
	return f
}

// Insert stores a new review. The server owns ID, CreatedAt and Flagged;
// whatever the caller put there is replaced.
func (s *Store) Insert(ctx context.Context, r models.Review) (models.Review, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.Flagged = false
	r.TextContent = htmlsanitize.PlainText(r.TextContent)
	r.UserMajor = htmlsanitize.PlainText(r.UserMajor)
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Review{}, err
	}
	return r, nil
}

// GetByID loads a review regardless of its flag.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	var r models.Review
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Review{}, ErrNotFound
	}
	if err != nil {
		return models.Review{}, err
	}
	return r, nil
}

// Exists reports whether a review with id is still stored.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByOrganization returns the visible reviews of orgID, newest first.
func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cur, err := s.c.Find(ctx, visible(orgID), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	reviews := []models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Count returns the number of visible reviews of orgID.
func (s *Store) Count(ctx context.Context, orgID string) (int64, error) {
	return s.c.CountDocuments(ctx, visible(orgID))
}

// MarkFlagged hides a review. It only ever sets the flag; nothing in this
// package clears it. Flagging an already flagged review is not an error.
func (s *Store) MarkFlagged(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"flagged": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type totalsRow struct {
	OrganizationID string  `bson:"_id"`
	Count          int64   `bson:"count"`
	SumRating      float64 `bson:"sum_rating"`
	SumSocial      int64   `bson:"sum_social"`
	SumWorkload    int64   `bson:"sum_workload"`
	SumValue       int64   `bson:"sum_value"`
}

// AggregateTotals sums visible reviews per organization in one pipeline.
// Missing vibes are summed as models.DefaultVibe, matching models.Review.Vibes.
// With no orgIDs every organization that has a visible review is returned.
func (s *Store) AggregateTotals(ctx context.Context, orgIDs ...string) (map[string]stats.Totals, error) {
	match := visible("")
	if len(orgIDs) > 0 {
		match["organization_id"] = bson.M{"$in": orgIDs}
	}
	vibe := func(field string) bson.M {
		return bson.M{"$sum": bson.M{"$ifNull": bson.A{"$" + field, models.DefaultVibe}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$organization_id",
			"count":        bson.M{"$sum": 1},
			"sum_rating":   bson.M{"$sum": bson.M{"$toDouble": "$rating"}},
			"sum_social":   vibe("vibe_social"),
			"sum_workload": vibe("vibe_workload"),
			"sum_value":    vibe("vibe_value"),
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []totalsRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]stats.Totals, len(rows))
	for _, r := range rows {
		out[r.OrganizationID] = stats.Totals{
			Count:       int(r.Count),
			SumRating:   r.SumRating,
			SumSocial:   int(r.SumSocial),
			SumWorkload: int(r.SumWorkload),
			SumValue:    int(r.SumValue),
		}
	}
	return out, nil
}

var (
	_ stats.ReviewLister     = (*Store)(nil)
	_ stats.TotalsAggregator = (*Store)(nil)
)
