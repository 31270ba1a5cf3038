package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/lock"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
	"github.com/flicky/go-storefront-api/internal/validation"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
)

var taxRate = decimal.NewFromFloat(0.14)

const orderQueueName = "orders"

// StockError accumulates one message per cart line whose quantity cannot be
// satisfied. The whole order is rejected; no line is partially fulfilled.
type StockError struct {
	Violations []string
}

func (e *StockError) Error() string { return strings.Join(e.Violations, " ") }

// OrderService converts populated carts into priced, stock-reserving orders
// and exposes the order administration operations.
type OrderService struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	products repository.ProductRepository
	users    repository.UserRepository
	cart     *CartService
	locks    *lock.Keyed
	amqpCh   *amqp.Channel
	log      *slog.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	cart *CartService,
	amqpCh *amqp.Channel,
	log *slog.Logger,
) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		users:    users,
		cart:     cart,
		locks:    lock.NewKeyed(),
		amqpCh:   amqpCh,
		log:      log,
	}
}

// CreateOrder is the cart-to-order state transition:
//
//  1. load the actor's populated cart
//  2. validate shipping info
//  3. re-fetch every line's current stock concurrently and verify quantities;
//     any violation rejects the whole order
//  4. decrement stock, only after all checks passed
//  5. price the order from the stock-check reads and persist it as pending
//  6. clear the cart — even when persisting the order failed, so a checkout
//     attempt never leaves a live cart behind
//
// Steps 3-4 run under per-product locks, so a concurrent checkout racing on
// the same product cannot pass the check against stock this one is about to
// reserve. If persisting the order fails after the decrements, the reserved
// stock is restored.
func (s *OrderService) CreateOrder(ctx context.Context, actor model.Actor, shipping model.ShippingInfo) (*model.Order, error) {
	populated, err := s.cart.GetPopulatedCart(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(populated.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := validation.ShippingInfo(shipping); err != nil {
		return nil, err
	}

	ids := make([]string, len(populated.Items))
	for i, item := range populated.Items {
		ids[i] = item.ProductID
	}
	release := s.locks.LockKeys(ids)
	defer release()

	current, stockErr, err := s.checkStock(ctx, populated.Items)
	if err != nil {
		return nil, err
	}
	if stockErr != nil {
		return nil, stockErr
	}

	reserved, err := s.reserveStock(ctx, populated.Items)
	if err != nil {
		s.restoreStock(ctx, reserved)
		return nil, err
	}

	subtotal := decimal.Zero
	items := make([]model.OrderItem, len(populated.Items))
	for i, item := range populated.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(current[i].Price.Mul(qty))
		items[i] = model.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)

	order := &model.Order{
		UserID:       actor.ID,
		Items:        items,
		Subtotal:     subtotal,
		Tax:          tax,
		TotalPrice:   subtotal.Add(tax),
		Status:       model.OrderStatusPending,
		ShippingInfo: shipping,
	}
	createErr := s.orders.Create(ctx, order)

	// The cart does not survive a checkout attempt, successful or not.
	if err := s.carts.Delete(ctx, populated.ID); err != nil {
		s.log.Warn("clear cart after checkout", "cart_id", populated.ID, "error", err)
	}

	if createErr != nil {
		s.restoreStock(ctx, reserved)
		return nil, fmt.Errorf("create order: %w", createErr)
	}

	s.publishOrderCreated(ctx, order)
	return order, nil
}

// checkStock re-fetches every line's product concurrently and verifies the
// ordered quantity against current stock, guarding against staleness between
// cart population and checkout. Violations are accumulated per line.
func (s *OrderService) checkStock(ctx context.Context, items []model.PopulatedItem) ([]*model.Product, *StockError, error) {
	current := make([]*model.Product, len(items))
	violations := make([]string, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			product, err := s.products.GetByID(gctx, item.ProductID)
			if errors.Is(err, client.ErrNotFound) {
				violations[i] = fmt.Sprintf("Product %q is no longer available.", item.ProductID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("check stock for product %s: %w", item.ProductID, err)
			}
			current[i] = product
			if item.Quantity > product.Stock {
				violations[i] = fmt.Sprintf(
					"Requested quantity \"%d\" for product %q exceeds available stock \"%d\".",
					item.Quantity, product.Name, product.Stock,
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var failed []string
	for _, v := range violations {
		if v != "" {
			failed = append(failed, v)
		}
	}
	if len(failed) > 0 {
		return nil, &StockError{Violations: failed}, nil
	}
	return current, nil, nil
}

type reservation struct {
	productID string
	quantity  int
}

func (s *OrderService) reserveStock(ctx context.Context, items []model.PopulatedItem) ([]reservation, error) {
	var reserved []reservation
	for _, item := range items {
		if _, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return reserved, fmt.Errorf("reserve stock: %w", err)
		}
		reserved = append(reserved, reservation{productID: item.ProductID, quantity: item.Quantity})
	}
	return reserved, nil
}

// restoreStock compensates already-applied decrements when a later step of
// the checkout failed.
func (s *OrderService) restoreStock(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.products.RestoreStock(ctx, r.productID, r.quantity); err != nil {
			s.log.Error("restore reserved stock", "product_id", r.productID, "quantity", r.quantity, "error", err)
		}
	}
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *model.Order) {
	if s.amqpCh == nil {
		return
	}
	msg, _ := json.Marshal(model.OrderMessage{OrderID: order.ID, UserID: order.UserID})
	err := s.amqpCh.PublishWithContext(ctx, "", orderQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		s.log.Error("publish order created", "order_id", order.ID, "error", err)
	}
}

// GetOrder fetches one order with its items populated from the live catalog.
// Readable by the owning user or an admin.
func (s *OrderService) GetOrder(ctx context.Context, actor model.Actor, id string) (*model.PopulatedOrder, error) {
	if id == "" {
		return nil, validation.Error("Order ID is required")
	}

	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}

	return s.populateOrder(ctx, order)
}

// ListOrders returns populated orders, optionally filtered to one user.
// Non-admin actors may only list their own.
func (s *OrderService) ListOrders(ctx context.Context, actor model.Actor, userID string) ([]model.PopulatedOrder, error) {
	if !actor.IsAdmin() && userID != actor.ID {
		return nil, ErrPermissionDenied
	}

	orders, err := s.orders.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	populated := make([]model.PopulatedOrder, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	for i, order := range orders {
		i, order := i, order
		g.Go(func() error {
			p, err := s.populateOrder(gctx, &order)
			if err != nil {
				return err
			}
			populated[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return populated, nil
}

// ListForActor lists the calling actor's own orders.
func (s *OrderService) ListForActor(ctx context.Context, actor model.Actor) ([]model.PopulatedOrder, error) {
	return s.ListOrders(ctx, actor, actor.ID)
}

func (s *OrderService) populateOrder(ctx context.Context, order *model.Order) (*model.PopulatedOrder, error) {
	refs := make([]model.CartItem, len(order.Items))
	for i, item := range order.Items {
		refs[i] = model.CartItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	items, err := populateItems(ctx, s.products, refs)
	if err != nil {
		return nil, err
	}
	return &model.PopulatedOrder{Order: *order, Items: items}, nil
}

// UpdateOrder patches an order; admin only. Status values are validated
// against the lifecycle enum.
func (s *OrderService) UpdateOrder(ctx context.Context, actor model.Actor, id string, req dto.UpdateOrderRequest) (*model.Order, error) {
	if id == "" {
		return nil, validation.Error("Order ID is required")
	}
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	fields := map[string]any{}
	if req.Status != nil {
		if err := validation.OrderStatus(*req.Status); err != nil {
			return nil, err
		}
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		return nil, validation.Error("No fields to update")
	}

	order, err := s.orders.Update(ctx, id, fields)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

// DeleteOrder removes an order; admin only.
func (s *OrderService) DeleteOrder(ctx context.Context, actor model.Actor, id string) error {
	if id == "" {
		return validation.Error("Order ID is required")
	}
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}

	err := s.orders.Delete(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

// Statistics computes the admin dashboard numbers live from the backing
// collections: revenue counts completed orders only.
func (s *OrderService) Statistics(ctx context.Context, actor model.Actor) (*dto.StatisticsResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	orders, err := s.orders.List(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &dto.StatisticsResponse{
		TotalOrders:  len(orders),
		TotalRevenue: decimal.Zero,
	}
	for _, order := range orders {
		switch order.Status {
		case model.OrderStatusCompleted:
			stats.TotalRevenue = stats.TotalRevenue.Add(order.TotalPrice)
		case model.OrderStatusPending:
			stats.PendingOrders++
		}
	}

	products, err := s.products.List(ctx, "")
	if err != nil {
		return nil, err
	}
	stats.TotalProducts = len(products)

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	stats.Customers = len(users)

	return stats, nil
}
