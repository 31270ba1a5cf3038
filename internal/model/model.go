package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller of a catalog, cart, or order operation.
// It is passed explicitly so services never read identity from ambient state.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

type Cart struct {
	ID     string     `json:"id"`
	UserID string     `json:"userId"`
	Items  []CartItem `json:"items"`
}

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PopulatedItem is a cart or order line joined against the catalog.
// Product is nil when the referenced product no longer exists.
type PopulatedItem struct {
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product"`
}

type PopulatedCart struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Items  []PopulatedItem `json:"items"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted:
		return true
	}
	return false
}

type Order struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Items        []OrderItem     `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Status       OrderStatus     `json:"status"`
	ShippingInfo ShippingInfo    `json:"shippingInfo"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// OrderItem carries no denormalized price; pricing is reconstructed from the
// catalog at read time.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type PopulatedOrder struct {
	Order
	Items []PopulatedItem `json:"items"`
}

type ShippingInfo struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

type OrderMessage struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}
