package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/model"
)

type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Cart, error)
	Create(ctx context.Context, cart *model.Cart) error
	UpdateItems(ctx context.Context, id string, items []model.CartItem) (*model.Cart, error)
	Delete(ctx context.Context, id string) error
}

type restCartRepo struct{ c *client.Client }

func NewCartRepository(c *client.Client) CartRepository {
	return &restCartRepo{c: c}
}

// GetByUserID finds the actor's cart by filter. One cart per user holds by
// convention only; the backend enforces no uniqueness, so the first match
// wins.
func (r *restCartRepo) GetByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	cart := &model.Cart{}
	filter := url.Values{"userId": {userID}}
	if err := r.c.GetOne(ctx, "carts", filter, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *restCartRepo) Create(ctx context.Context, cart *model.Cart) error {
	cart.ID = uuid.NewString()
	if err := r.c.Post(ctx, "carts", cart, cart); err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (r *restCartRepo) UpdateItems(ctx context.Context, id string, items []model.CartItem) (*model.Cart, error) {
	cart := &model.Cart{}
	if err := r.c.Patch(ctx, "carts", id, map[string]any{"items": items}, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *restCartRepo) Delete(ctx context.Context, id string) error {
	return r.c.Delete(ctx, "carts", id)
}
