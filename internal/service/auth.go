package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rouemaroc/spinwheel/internal/domain"
	"github.com/rouemaroc/spinwheel/internal/repository"
)

type AuthAdminRepository interface {
	Create(ctx context.Context, admin domain.Admin) (domain.Admin, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, password string) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Admin, error)
	FindByUsername(ctx context.Context, username string) (domain.Admin, error)
}

type AuthService struct {
	repo AuthAdminRepository
}

func NewAuthService(repo AuthAdminRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Admin, error) {
	admin, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return domain.Admin{}, ErrAdminNotFound
		}

		return domain.Admin{}, fmt.Errorf("s.repo.FindByUsername -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return domain.Admin{}, ErrWrongPassword
	}

	return admin, nil
}

// EnsureAdmin creates the admin account, or resets its password when the
// username is already taken. The bool is true when a new account was made.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (domain.Admin, bool, error) {
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return domain.Admin{}, false, err
	}

	username = strings.TrimSpace(username)
	admin, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if err = s.repo.UpdatePassword(ctx, admin.ID, hashedPassword); err != nil {
			return domain.Admin{}, false, fmt.Errorf("s.repo.UpdatePassword -> %w", err)
		}

		return admin, false, nil
	case !errors.Is(err, repository.ErrAdminNotFound):
		return domain.Admin{}, false, fmt.Errorf("s.repo.FindByUsername -> %w", err)
	}

	created, err := s.repo.Create(ctx, domain.Admin{
		Username: username,
		Password: hashedPassword,
	})
	if err != nil {
		return domain.Admin{}, false, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, true, nil
}

func (s *AuthService) GetAdmin(ctx context.Context, id uuid.UUID) (domain.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return admin, nil
}

// Helper function for password hashing
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
