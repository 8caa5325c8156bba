// internal/app/store/submissions/submissionstore.go
package submissionstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the rate-limit ledger collection name.
const Collection = "submissions"

// Store is the rate-limit ledger. A document for (device_hash, organization_id)
// means that device has already reviewed that organization. Documents are
// never removed here; expiry is an operator decision.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// ErrInvalidKey is returned when either half of the ledger key is empty.
var ErrInvalidKey = errors.New("submission key requires device hash and organization id")

func checkKey(deviceHash, orgID string) error {
	if strings.TrimSpace(deviceHash) == "" || strings.TrimSpace(orgID) == "" {
		return ErrInvalidKey
	}
	return nil
}

func key(deviceHash, orgID string) bson.M {
	return bson.M{"device_hash": deviceHash, "organization_id": orgID}
}

// CheckCanSubmit reports whether no ledger entry exists for the pair.
// Once it returns false it keeps returning false for as long as the entry exists.
func (s *Store) CheckCanSubmit(ctx context.Context, deviceHash, orgID string) (bool, error) {
	if err := checkKey(deviceHash, orgID); err != nil {
		return false, err
	}
	n, err := s.c.CountDocuments(ctx, key(deviceHash, orgID), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// RecordSubmission creates the ledger entry if it does not exist yet.
// Repeated calls leave the first entry, including its created_at, untouched.
func (s *Store) RecordSubmission(ctx context.Context, deviceHash, orgID string) error {
	if err := checkKey(deviceHash, orgID); err != nil {
		return err
	}
	_, err := s.c.UpdateOne(ctx,
		key(deviceHash, orgID),
		bson.M{"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	// Two concurrent upserts on the same pair race on the unique index;
	// the loser's entry already exists, which is the outcome we want.
	if err != nil && wafflemongo.IsDup(err) {
		return nil
	}
	return err
}
