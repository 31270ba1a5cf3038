package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type restUserRepo struct{ c *client.Client }

func NewUserRepository(c *client.Client) UserRepository {
	return &restUserRepo{c: c}
}

func (r *restUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.NewString()
	if err := r.c.Post(ctx, "users", user, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *restUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	if err := r.c.GetByID(ctx, "users", id, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *restUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	if err := r.c.GetOne(ctx, "users", url.Values{"email": {email}}, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *restUserRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.c.GetAll(ctx, "users", nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
