// internal/domain/models/submission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission is a rate-limit ledger entry. Its existence means the device has
// already reviewed the organization. The raw device identifier is never
// stored; DeviceHash is a keyed hash of it.
type Submission struct {
	ID             primitive.ObjectID `bson:"_id"`
	DeviceHash     string             `bson:"device_hash"`
	OrganizationID string             `bson:"organization_id"`
	CreatedAt      time.Time          `bson:"created_at"`
}
