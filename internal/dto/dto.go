package dto

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// --- Product ---

type ListProductsRequest struct {
	Category string `form:"category"`
	Search   string `form:"search"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int            `json:"stock"`
	Image       string          `json:"image"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Image       *string          `json:"image"`
}

type UploadImageResponse struct {
	File string `json:"file"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// --- Order ---

type CreateOrderRequest struct {
	ShippingInfo model.ShippingInfo `json:"shippingInfo" binding:"required"`
}

type UpdateOrderRequest struct {
	Status *string `json:"status"`
}

type StatisticsResponse struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PendingOrders int             `json:"pendingOrders"`
	TotalProducts int             `json:"totalProducts"`
	Customers     int             `json:"customers"`
}
