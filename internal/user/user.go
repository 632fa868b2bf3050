// Package user defines the user record: a unique name, an opaque identifier
// and the append-only exercise log.
package user

import "github.com/patric-chuzhbe/exercisetracker/internal/models"

// User represents a registered user together with the full exercise log.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"_id" bson:"_id"`

	// UserName is unique across all users.
	UserName string `json:"userName" bson:"userName" validate:"required"`

	// Log is kept in append order.
	Log []models.Exercise `json:"log" bson:"log"`
}

// Summary returns the user without its log.
func (u *User) Summary() models.UserSummary {
	return models.UserSummary{
		ID:       u.ID,
		UserName: u.UserName,
	}
}
