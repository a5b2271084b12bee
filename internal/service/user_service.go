package service

import (
	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrHashingFailed     = errors.New("failed to hash password")
	ErrInvalidUserInput  = errors.New("invalid user input")
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
	MaxPageSize       = 100

	minPasswordLength = 8
)

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.UserRole
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users      []domain.User `json:"users"`
	PageNumber int           `json:"pageNumber"`
	PageSize   int           `json:"pageSize"`
	Total      int64         `json:"total"`
}

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	// List pages through users. Non-positive values fall back to the defaults.
	List(ctx context.Context, pageNumber, pageSize int) (*UserPage, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	return createUser(ctx, s.userRepo, in)
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) List(ctx context.Context, pageNumber, pageSize int) (*UserPage, error) {
	if pageNumber <= 0 {
		pageNumber = DefaultPageNumber
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	skip := int64(pageNumber-1) * int64(pageSize)
	users, err := s.userRepo.List(ctx, skip, int64(pageSize))
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return &UserPage{Users: users, PageNumber: pageNumber, PageSize: pageSize, Total: total}, nil
}

// createUser is shared by account creation and admin bootstrap.
func createUser(ctx context.Context, repo repository.UserRepository, in CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.Name == "" || in.Email == "":
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidUserInput)
	case len(in.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUserInput, minPasswordLength)
	case !in.Role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidUserInput, in.Role)
	}

	_, err := repo.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		Active:       true,
	}
	id, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = id
	user.PasswordHash = ""
	return user, nil
}
