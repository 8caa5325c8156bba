// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the app's collections if missing and attaches JSON-Schema
// validators. Servers without collMod support (some DocumentDB versions) are
// logged and skipped; the Go-side checks still run there.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		zap.L().Warn("list collections failed; creating blindly", zap.Error(err))
	}

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll, existing); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("reviews", reviewsSchema())
	ensure("submissions", submissionsSchema())
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// ensureCollection creates name unless it is already listed in existing.
// Losing a creation race to another instance is not an error.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, existing []string) error {
	if slices.Contains(existing, name) {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

/* ------------------------------ validators ------------------------------- */

// setValidator attaches schema with moderate validation, so documents that
// predate the schema can still be updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var intTypes = bson.A{"int", "long"}

func vibeSchema() bson.M {
	return bson.M{"bsonType": intTypes, "minimum": models.MinVibe, "maximum": models.MaxVibe}
}

func reviewsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "rating", "flagged", "created_at"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "string", "minLength": 1},
				"rating": bson.M{
					"bsonType":   bson.A{"double", "int", "long", "decimal"},
					"minimum":    models.MinRating,
					"maximum":    models.MaxRating,
					"multipleOf": models.RatingStep,
				},
				"vibe_social":   vibeSchema(),
				"vibe_workload": vibeSchema(),
				"vibe_value":    vibeSchema(),
				"text_content":  bson.M{"bsonType": "string", "maxLength": models.MaxTextContentLen},
				"user_major":    bson.M{"bsonType": "string", "maxLength": models.MaxUserMajorLen},
				"flagged":       bson.M{"bsonType": "bool"},
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func submissionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"device_hash", "organization_id", "created_at"},
			"properties": bson.M{
				"device_hash":     bson.M{"bsonType": "string", "minLength": 1},
				"organization_id": bson.M{"bsonType": "string", "minLength": 1},
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}
