package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, userID string) ([]model.Order, error)
	Update(ctx context.Context, id string, fields map[string]any) (*model.Order, error)
	Delete(ctx context.Context, id string) error
}

type restOrderRepo struct{ c *client.Client }

func NewOrderRepository(c *client.Client) OrderRepository {
	return &restOrderRepo{c: c}
}

func (r *restOrderRepo) Create(ctx context.Context, order *model.Order) error {
	order.ID = uuid.NewString()
	order.CreatedAt = time.Now().UTC()
	if err := r.c.Post(ctx, "orders", order, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *restOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	order := &model.Order{}
	if err := r.c.GetByID(ctx, "orders", id, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List fetches orders, all of them when userID is empty.
func (r *restOrderRepo) List(ctx context.Context, userID string) ([]model.Order, error) {
	filter := url.Values{}
	if userID != "" {
		filter.Set("userId", userID)
	}
	var orders []model.Order
	if err := r.c.GetAll(ctx, "orders", filter, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *restOrderRepo) Update(ctx context.Context, id string, fields map[string]any) (*model.Order, error) {
	order := &model.Order{}
	if err := r.c.Patch(ctx, "orders", id, fields, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *restOrderRepo) Delete(ctx context.Context, id string) error {
	return r.c.Delete(ctx, "orders", id)
}
