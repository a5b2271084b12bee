package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole names the role a user holds. Permissions hang off the role.
type UserRole string

const (
	RoleManager UserRole = "manager"
	RoleAgent   UserRole = "agent"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleManager || r == RoleAgent
}

// User is an account that can authenticate against the upload API.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // never serialised
	Role         UserRole           `bson:"role" json:"role"`
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
