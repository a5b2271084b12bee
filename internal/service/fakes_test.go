package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return primitive.NilObjectID, r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC().Add(time.Duration(len(r.users)) * time.Millisecond)
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) List(_ context.Context, skip, limit int64) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if skip >= int64(len(all)) {
		return []domain.User{}, nil
	}
	end := min(skip+limit, int64(len(all)))
	return all[skip:end], nil
}

func (r *fakeUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) setActive(id primitive.ObjectID, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	u.Active = active
	r.users[id] = u
}

type fakeRoleRepo struct {
	roles map[domain.UserRole]domain.Role
}

func newFakeRoleRepo(roles ...domain.Role) *fakeRoleRepo {
	r := &fakeRoleRepo{roles: make(map[domain.UserRole]domain.Role)}
	for _, role := range roles {
		r.roles[role.Name] = role
	}
	return r
}

func (r *fakeRoleRepo) GetByName(_ context.Context, name domain.UserRole) (*domain.Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r *fakeRoleRepo) Upsert(_ context.Context, role *domain.Role) error {
	r.roles[role.Name] = *role
	return nil
}
