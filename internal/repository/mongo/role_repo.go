package mongo

import (
	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const roleCollectionName = "roles"

type mongoRoleRepository struct {
	collection *mongo.Collection
}

// NewMongoRoleRepository creates a role repository backed by the roles collection.
func NewMongoRoleRepository(db *mongo.Database) repository.RoleRepository {
	return &mongoRoleRepository{
		collection: db.Collection(roleCollectionName),
	}
}

func (r *mongoRoleRepository) GetByName(ctx context.Context, name domain.UserRole) (*domain.Role, error) {
	var role domain.Role
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&role)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// Upsert replaces the feature list of role.Name, creating the role if needed.
func (r *mongoRoleRepository) Upsert(ctx context.Context, role *domain.Role) error {
	filter := bson.M{"name": role.Name}
	update := bson.M{"$set": bson.M{"features": role.Features}}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: role %s: %v", repository.ErrUpdateFailed, role.Name, err)
	}
	return nil
}

// EnsureRoleIndexes makes role names unique.
func EnsureRoleIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(roleCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", roleCollectionName, err)
	}
	return nil
}

// SeedRoles upserts every default role.
func SeedRoles(ctx context.Context, roles repository.RoleRepository) error {
	for _, role := range domain.DefaultRoles() {
		if err := roles.Upsert(ctx, &role); err != nil {
			return err
		}
	}
	return nil
}
