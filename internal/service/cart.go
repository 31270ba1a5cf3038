package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
)

var (
	ErrNoCart            = errors.New("user has no cart")
	ErrNotInCart         = errors.New("product not in cart")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
)

// CartService owns a single actor's active cart: created lazily on first add,
// deleted again when its last item goes. Stock checks read live product data,
// never the cache.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) GetCart(ctx context.Context, actor model.Actor) (*model.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, actor.ID)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrNoCart
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// GetPopulatedCart joins every cart line against the catalog. A line whose
// product has since been deleted keeps its ProductID and quantity with a nil
// Product, so callers can render it as unavailable instead of crashing.
func (s *CartService) GetPopulatedCart(ctx context.Context, actor model.Actor) (*model.PopulatedCart, error) {
	cart, err := s.GetCart(ctx, actor)
	if err != nil {
		return nil, err
	}

	items, err := populateItems(ctx, s.products, cart.Items)
	if err != nil {
		return nil, err
	}
	return &model.PopulatedCart{ID: cart.ID, UserID: cart.UserID, Items: items}, nil
}

// AddItem appends a line or increments an existing one. The stock check runs
// against the combined total of what is already in the cart plus the new
// quantity, not just the increment.
func (s *CartService) AddItem(ctx context.Context, actor model.Actor, productID string, quantity int) (*model.Cart, error) {
	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	cart, err := s.carts.GetByUserID(ctx, actor.ID)
	if errors.Is(err, client.ErrNotFound) {
		if quantity > product.Stock {
			return nil, ErrInsufficientStock
		}
		cart = &model.Cart{
			UserID: actor.ID,
			Items:  []model.CartItem{{ProductID: productID, Quantity: quantity}},
		}
		if err := s.carts.Create(ctx, cart); err != nil {
			return nil, err
		}
		return cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	requested := quantity
	found := false
	for i, item := range cart.Items {
		if item.ProductID == productID {
			requested += item.Quantity
			cart.Items[i].Quantity = requested
			found = true
			break
		}
	}
	if requested > product.Stock {
		return nil, ErrInsufficientStock
	}
	if !found {
		cart.Items = append(cart.Items, model.CartItem{ProductID: productID, Quantity: quantity})
	}

	return s.carts.UpdateItems(ctx, cart.ID, cart.Items)
}

// RemoveItem drops a product's line entirely. Removing the last line deletes
// the cart itself.
func (s *CartService) RemoveItem(ctx context.Context, actor model.Actor, productID string) error {
	cart, err := s.GetCart(ctx, actor)
	if err != nil {
		return err
	}

	kept := cart.Items[:0:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(cart.Items) {
		return ErrNotInCart
	}

	if len(kept) == 0 {
		return s.carts.Delete(ctx, cart.ID)
	}
	_, err = s.carts.UpdateItems(ctx, cart.ID, kept)
	return err
}

// UpdateItemQuantity sets a line's quantity; zero delegates to RemoveItem.
// The returned cart is nil when the line was removed.
func (s *CartService) UpdateItemQuantity(ctx context.Context, actor model.Actor, productID string, quantity int) (*model.Cart, error) {
	cart, err := s.GetCart(ctx, actor)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, item := range cart.Items {
		if item.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotInCart
	}

	if quantity == 0 {
		return nil, s.RemoveItem(ctx, actor, productID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if quantity > product.Stock {
		return nil, ErrInsufficientStock
	}

	cart.Items[idx].Quantity = quantity
	return s.carts.UpdateItems(ctx, cart.ID, cart.Items)
}

// ClearCart deletes the actor's cart outright.
func (s *CartService) ClearCart(ctx context.Context, actor model.Actor) error {
	cart, err := s.GetCart(ctx, actor)
	if err != nil {
		return err
	}
	return s.carts.Delete(ctx, cart.ID)
}

// populateItems resolves product details for cart/order lines with a
// fan-out of catalog lookups. Missing products become nil-Product lines;
// any other lookup failure aborts the whole read.
func populateItems(ctx context.Context, products repository.ProductRepository, refs []model.CartItem) ([]model.PopulatedItem, error) {
	items := make([]model.PopulatedItem, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			items[i] = model.PopulatedItem{ProductID: ref.ProductID, Quantity: ref.Quantity}
			product, err := products.GetByID(gctx, ref.ProductID)
			if errors.Is(err, client.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("populate item %s: %w", ref.ProductID, err)
			}
			items[i].Product = product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
