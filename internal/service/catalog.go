package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/repository"
	"github.com/flicky/go-storefront-api/internal/validation"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrPermissionDenied = errors.New("user does not have permission to do this action")
)

const productCacheTTL = 60 * time.Second

// CatalogService is the gateway to product records. Mutations are admin-only;
// the permission check always runs before field validation.
type CatalogService struct {
	products    repository.ProductRepository
	redisClient *redis.Client
}

func NewCatalogService(products repository.ProductRepository, redisClient *redis.Client) *CatalogService {
	return &CatalogService{products: products, redisClient: redisClient}
}

func (s *CatalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, validation.Error("Product ID is required")
	}

	cacheKey := "product:" + id
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			p := &model.Product{}
			if json.Unmarshal([]byte(cached), p) == nil {
				return p, nil
			}
		}
	}

	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(p); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return p, nil
}

// List filters by category on the backend and applies text search
// client-side: a case-insensitive regex match across name, category, and
// description. The two-stage split is deliberate; text search does not
// compose with backend pagination.
func (s *CatalogService) List(ctx context.Context, req dto.ListProductsRequest) ([]model.Product, error) {
	products, err := s.products.List(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	if req.Search == "" {
		return products, nil
	}

	re, err := regexp.Compile("(?i)" + req.Search)
	if err != nil {
		return nil, validation.Error("Invalid search pattern")
	}

	matched := make([]model.Product, 0, len(products))
	for _, p := range products {
		if re.MatchString(p.Name) || re.MatchString(p.Category) || re.MatchString(p.Description) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Create stores a new product. req.Image must already be a stored image
// reference resolved by the image collaborator.
func (s *CatalogService) Create(ctx context.Context, actor model.Actor, req dto.CreateProductRequest) (*model.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	fields := validation.ProductFields{
		Name:        &req.Name,
		Description: &req.Description,
		Category:    &req.Category,
		Price:       &req.Price,
		Stock:       req.Stock,
		Image:       &req.Image,
	}
	if req.Name == "" {
		fields.Name = nil
	}
	if req.Description == "" {
		fields.Description = nil
	}
	if req.Category == "" {
		fields.Category = nil
	}
	if req.Price.IsZero() {
		fields.Price = nil
	}
	if req.Image == "" {
		fields.Image = nil
	}
	if err := validation.Product(fields, true); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       *req.Stock,
		Image:       req.Image,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, actor model.Actor, id string, req dto.UpdateProductRequest) (*model.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if id == "" {
		return nil, validation.Error("Product ID is required")
	}

	err := validation.Product(validation.ProductFields{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
	}, false)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Stock != nil {
		fields["stock"] = *req.Stock
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}

	product, err := s.products.Update(ctx, id, fields)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if id == "" {
		return validation.Error("Product ID is required")
	}

	err := s.products.Delete(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidateCache(ctx, id)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context, id string) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id)
	}
}
