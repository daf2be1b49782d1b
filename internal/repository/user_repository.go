package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/turneja/internal/domain"
	"github.com/diagnosis/turneja/internal/store"
)

const queryTimeout = 3 * time.Second

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Upsert(ctx context.Context, email string, set store.Set) (store.UpdateResult, error)
}

type userRepository struct {
	col store.Collection
}

func NewUserRepository(s store.Store) UserRepository {
	return &userRepository{col: s.Collection(store.ColUsers)}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var u domain.User
	err := r.col.FindOne(ctx, store.Filter{"email": email}, &u)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	users := []domain.User{}
	if err := r.col.Find(ctx, store.Filter{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Upsert(ctx context.Context, email string, set store.Set) (store.UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return r.col.UpdateOne(ctx, store.Filter{"email": email}, set, store.UpdateOptions{Upsert: true})
}
