package repository

import (
	"alcyxob/upload-service/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound       = RepositoryError("not found")
	ErrDuplicateEmail = RepositoryError("user with this email already exists")
	ErrUpdateFailed   = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// List returns users ordered by creation time, newest first.
	List(ctx context.Context, skip, limit int64) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// RoleRepository stores the feature set granted by each role.
type RoleRepository interface {
	GetByName(ctx context.Context, name domain.UserRole) (*domain.Role, error)
	Upsert(ctx context.Context, role *domain.Role) error
}
