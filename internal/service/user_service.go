package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// UserService handles admin-side account management.
type UserService struct {
	users UserStore
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// List returns a page of users and the total match count.
func (s *UserService) List(ctx context.Context, q model.UserListQuery) ([]model.User, int, error) {
	page, perPage := NormalizePage(q.Page, q.PerPage)
	return s.users.List(ctx, q.Search, perPage, (page-1)*perPage)
}

// SetRole promotes or demotes a user.
func (s *UserService) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// NormalizePage applies the default page size and the lower bounds.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return page, perPage
}
