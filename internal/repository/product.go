package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/model"
)

// ErrInsufficientStock is returned by DecrementStock when the write would
// drive a product's stock negative.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, category string) ([]model.Product, error)
	Update(ctx context.Context, id string, fields map[string]any) (*model.Product, error)
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) (*model.Product, error)
	RestoreStock(ctx context.Context, id string, quantity int) error
}

type restProductRepo struct{ c *client.Client }

func NewProductRepository(c *client.Client) ProductRepository {
	return &restProductRepo{c: c}
}

func (r *restProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.NewString()
	if err := r.c.Post(ctx, "products", product, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *restProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p := &model.Product{}
	if err := r.c.GetByID(ctx, "products", id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List fetches products, with category filtering delegated to the backend
// query. Text search is applied client-side by the catalog service.
func (r *restProductRepo) List(ctx context.Context, category string) ([]model.Product, error) {
	filter := url.Values{}
	if category != "" {
		filter.Set("category", category)
	}
	var products []model.Product
	if err := r.c.GetAll(ctx, "products", filter, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *restProductRepo) Update(ctx context.Context, id string, fields map[string]any) (*model.Product, error) {
	p := &model.Product{}
	if err := r.c.Patch(ctx, "products", id, fields, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *restProductRepo) Delete(ctx context.Context, id string) error {
	return r.c.Delete(ctx, "products", id)
}

// DecrementStock reads current stock and writes the reduced value, refusing
// to go negative. The backend offers no conditional update, so callers must
// serialise concurrent decrements of one product around this call.
func (r *restProductRepo) DecrementStock(ctx context.Context, id string, quantity int) (*model.Product, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	if p.Stock < quantity {
		return nil, fmt.Errorf("insufficient stock for product %s: %w", id, ErrInsufficientStock)
	}
	return r.Update(ctx, id, map[string]any{"stock": p.Stock - quantity})
}

// RestoreStock adds a previously reserved quantity back, compensating a
// checkout that failed after its decrements were applied.
func (r *restProductRepo) RestoreStock(ctx context.Context, id string, quantity int) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	if _, err := r.Update(ctx, id, map[string]any{"stock": p.Stock + quantity}); err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}
