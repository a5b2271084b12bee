package service

import (
	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/repository"
	"context"
	"errors"
)

var (
	ErrUserInactive     = errors.New("user account is inactive")
	ErrPermissionDenied = errors.New("permission denied")
)

// AccessService decides whether a user may use a feature.
type AccessService interface {
	Authorize(ctx context.Context, userID, feature string) (*domain.User, error)
}

type accessService struct {
	users UserService
	roles repository.RoleRepository
}

func NewAccessService(users UserService, roles repository.RoleRepository) AccessService {
	return &accessService{users: users, roles: roles}
}

// Authorize loads the user and checks that their role grants feature.
func (s *accessService) Authorize(ctx context.Context, userID, feature string) (*domain.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserInactive
	}

	role, err := s.roles.GetByName(ctx, user.Role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	if !role.Grants(feature) {
		return nil, ErrPermissionDenied
	}
	return user, nil
}
