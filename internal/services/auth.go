package services

import (
	"context"
	"errors"
	"fmt"

	"favlinks/internal/models"
	"favlinks/internal/repository"
	"favlinks/pkg/utils"
)

var (
	// ErrUserNotFound is returned when no account matches a username or session id.
	ErrUserNotFound = errors.New("user not found")
	// ErrIncorrectPassword is returned when the password does not match the stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrUserExists is returned when registering a username that is already taken.
	ErrUserExists = errors.New("username already taken")
	// ErrAuthentication marks failures to resolve the identity of a request.
	ErrAuthentication = errors.New("authentication failed")
)

// Strategy verifies credentials and resolves the identity stored in a session.
type Strategy interface {
	Verify(ctx context.Context, username, password string) (*models.SessionUser, error)
	LoadByID(ctx context.Context, id uint) (*models.SessionUser, error)
}

// LocalStrategy checks username/password pairs against bcrypt hashes in the users table.
type LocalStrategy struct {
	users *repository.UserRepository
}

func NewLocalStrategy(users *repository.UserRepository) *LocalStrategy {
	return &LocalStrategy{users: users}
}

func (s *LocalStrategy) Verify(ctx context.Context, username, password string) (*models.SessionUser, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrIncorrectPassword
	}

	return &models.SessionUser{ID: user.ID, Username: user.Username}, nil
}

func (s *LocalStrategy) LoadByID(ctx context.Context, id uint) (*models.SessionUser, error) {
	user, err := s.users.FindSessionUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type UserService struct {
	users        *repository.UserRepository
	auditService *AuditService
}

func NewUserService(users *repository.UserRepository, auditService *AuditService) *UserService {
	return &UserService{
		users:        users,
		auditService: auditService,
	}
}

// Register creates an account. The caller validates username and password.
func (s *UserService) Register(ctx context.Context, username, password string, meta RequestMeta) (*models.User, error) {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.auditService.LogAction(&user.ID, "REGISTER", user.Username, nil, meta)
	return user, nil
}
