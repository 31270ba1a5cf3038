package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront-api/internal/client"
	"github.com/flicky/go-storefront-api/internal/model"
)

// fakeBackend is an in-memory stand-in for the resource-collection store,
// speaking just enough of the protocol for the repositories.
type fakeBackend struct {
	mu       sync.Mutex
	products map[string]model.Product
	carts    map[string]model.Cart
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		products: make(map[string]model.Product),
		carts:    make(map[string]model.Cart),
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := parts[0]
	id := ""
	if len(parts) > 1 {
		id = parts[1]
	}

	switch {
	case collection == "products" && id == "" && r.Method == http.MethodGet:
		var out []model.Product
		category := r.URL.Query().Get("category")
		for _, p := range f.products {
			if category == "" || p.Category == category {
				out = append(out, p)
			}
		}
		json.NewEncoder(w).Encode(out)

	case collection == "products" && id != "" && r.Method == http.MethodGet:
		p, ok := f.products[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(p)

	case collection == "products" && id != "" && r.Method == http.MethodPatch:
		p, ok := f.products[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var fields map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&fields)
		if raw, ok := fields["stock"]; ok {
			json.Unmarshal(raw, &p.Stock)
		}
		if raw, ok := fields["name"]; ok {
			json.Unmarshal(raw, &p.Name)
		}
		f.products[id] = p
		json.NewEncoder(w).Encode(p)

	case collection == "carts" && id == "" && r.Method == http.MethodGet:
		var out []model.Cart
		userID := r.URL.Query().Get("userId")
		for _, c := range f.carts {
			if userID == "" || c.UserID == userID {
				out = append(out, c)
			}
		}
		json.NewEncoder(w).Encode(out)

	case collection == "carts" && id == "" && r.Method == http.MethodPost:
		var cart model.Cart
		json.NewDecoder(r.Body).Decode(&cart)
		f.carts[cart.ID] = cart
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(cart)

	case collection == "carts" && id != "" && r.Method == http.MethodPatch:
		cart, ok := f.carts[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var fields struct {
			Items *[]model.CartItem `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&fields)
		if fields.Items != nil {
			cart.Items = *fields.Items
		}
		f.carts[id] = cart
		json.NewEncoder(w).Encode(cart)

	case collection == "carts" && id != "" && r.Method == http.MethodDelete:
		if _, ok := f.carts[id]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(f.carts, id)
		w.Write([]byte("{}"))

	default:
		http.NotFound(w, r)
	}
}

func setup(t *testing.T) (*fakeBackend, *client.Client) {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return backend, client.New(srv.URL, 5*time.Second)
}

func TestProductRepository_GetByID(t *testing.T) {
	backend, c := setup(t)
	backend.products["p1"] = model.Product{ID: "p1", Name: "Desk Lamp", Price: decimal.NewFromInt(30), Stock: 5}

	repo := NewProductRepository(c)

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.Equal(t, 5, p.Stock)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestProductRepository_List_CategoryFilter(t *testing.T) {
	backend, c := setup(t)
	backend.products["p1"] = model.Product{ID: "p1", Category: "Footwear"}
	backend.products["p2"] = model.Product{ID: "p2", Category: "Home Decor"}

	repo := NewProductRepository(c)

	products, err := repo.List(context.Background(), "Footwear")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)

	all, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	backend, c := setup(t)
	backend.products["p1"] = model.Product{ID: "p1", Name: "Desk Lamp", Stock: 5}

	repo := NewProductRepository(c)

	p, err := repo.DecrementStock(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, 3, backend.products["p1"].Stock)

	_, err = repo.DecrementStock(context.Background(), "p1", 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, backend.products["p1"].Stock, "failed decrement must not touch stock")
}

func TestProductRepository_RestoreStock(t *testing.T) {
	backend, c := setup(t)
	backend.products["p1"] = model.Product{ID: "p1", Stock: 3}

	repo := NewProductRepository(c)
	require.NoError(t, repo.RestoreStock(context.Background(), "p1", 2))
	assert.Equal(t, 5, backend.products["p1"].Stock)
}

func TestCartRepository_Lifecycle(t *testing.T) {
	backend, c := setup(t)
	repo := NewCartRepository(c)
	ctx := context.Background()

	_, err := repo.GetByUserID(ctx, "u1")
	assert.ErrorIs(t, err, client.ErrNotFound)

	cart := &model.Cart{UserID: "u1", Items: []model.CartItem{{ProductID: "p1", Quantity: 2}}}
	require.NoError(t, repo.Create(ctx, cart))
	require.NotEmpty(t, cart.ID)

	found, err := repo.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, found.ID)
	require.Len(t, found.Items, 1)

	updated, err := repo.UpdateItems(ctx, cart.ID, []model.CartItem{{ProductID: "p1", Quantity: 5}})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Items[0].Quantity)

	require.NoError(t, repo.Delete(ctx, cart.ID))
	_, err = repo.GetByUserID(ctx, "u1")
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Empty(t, backend.carts)
}
