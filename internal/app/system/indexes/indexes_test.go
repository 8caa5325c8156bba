package indexes_test

import (
	"testing"

	"github.com/dalemusser/clubreviews/internal/app/system/indexes"
	"github.com/dalemusser/clubreviews/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	out := map[string]bson.M{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("Decode index failed: %v", err)
		}
		out[idx["name"].(string)] = idx
	}
	return out
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll string
		name string
	}{
		{"reviews", "idx_review_org_flagged_created"},
		{"submissions", "uniq_submission_device_org"},
		{"submissions", "idx_submission_org"},
		{"audit_events", "idx_audit_timestamp"},
		{"audit_events", "idx_audit_event_timestamp"},
		{"audit_events", "idx_audit_org_timestamp"},
	}
	for _, tt := range tests {
		names := indexNames(t, db, tt.coll)
		if _, ok := names[tt.name]; !ok {
			t.Errorf("%s: missing index %s", tt.coll, tt.name)
		}
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys as the ledger index, wrong name and not unique.
	_, err := db.Collection("submissions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "device_hash", Value: 1}, {Key: "organization_id", Value: 1}},
		Options: options.Index().SetName("legacy_device_org"),
	})
	if err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	names := indexNames(t, db, "submissions")
	if _, ok := names["legacy_device_org"]; ok {
		t.Error("legacy index should have been replaced")
	}
	idx, ok := names["uniq_submission_device_org"]
	if !ok {
		t.Fatal("expected uniq_submission_device_org")
	}
	if u, _ := idx["unique"].(bool); !u {
		t.Error("expected ledger index to be unique")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("submissions")
	doc := bson.M{"device_hash": "d", "organization_id": "o"}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := coll.InsertOne(ctx, bson.M{"device_hash": "d", "organization_id": "o"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}
