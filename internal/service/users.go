package service

import (
	"context"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/store"
)

// UserService maintains the local mirror of externally issued accounts.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

// EnsureExists inserts the user row on first sight of a verified identity.
// Existing rows are never mutated; the auth provider owns the account.
func (s *UserService) EnsureExists(ctx context.Context, userID, email string) error {
	if email == "" {
		// tokens are not required to carry an email claim
		email = fmt.Sprintf("%s@users.invalid", userID)
	}
	return s.store.Users().Upsert(ctx, &model.User{ID: userID, Email: email})
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}
