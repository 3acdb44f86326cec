package memory

import (
	"context"

	"github.com/dmitrijs2005/cashcare/internal/common"
	"github.com/dmitrijs2005/cashcare/internal/server/models"
)

type UsersRepository struct {
	s *Store
}

func (r *UsersRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.emails[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.s.users[user.ID]; ok {
		return nil, common.ErrStorageConflict
	}

	r.s.users[user.ID] = *user
	r.s.emails[user.Email] = user.ID
	return user, nil
}

func (r *UsersRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.s.lock(ctx)()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *UsersRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *UsersRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	defer r.s.lock(ctx)()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	r.s.users[id] = u
	return nil
}
