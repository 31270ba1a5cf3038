package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCart struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestClient_GetOne_CollapsesToFirst(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/carts", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		json.NewEncoder(w).Encode([]testCart{{ID: "c1", UserID: "u1"}, {ID: "c2", UserID: "u1"}})
	})
	defer srv.Close()

	var cart testCart
	err := c.GetOne(context.Background(), "carts", url.Values{"userId": {"u1"}}, &cart)
	require.NoError(t, err)
	assert.Equal(t, "c1", cart.ID)
}

func TestClient_GetOne_EmptyListIsNotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})
	defer srv.Close()

	var cart testCart
	err := c.GetOne(context.Background(), "carts", nil, &cart)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "no cart found")
}

func TestClient_GetByID_NotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	defer srv.Close()

	var cart testCart
	err := c.GetByID(context.Background(), "products", "missing", &cart)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "no product found with this id")
}

func TestClient_TransportErrorIsNotNotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {})
	srv.Close() // connection refused from here on

	var cart testCart
	err := c.GetByID(context.Background(), "products", "p1", &cart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_ServerErrorIsNotNotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	err := c.Delete(context.Background(), "products", "p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_PostDecodesCreated(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in testCart
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "generated"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	})
	defer srv.Close()

	cart := testCart{UserID: "u1"}
	require.NoError(t, c.Post(context.Background(), "carts", cart, &cart))
	assert.Equal(t, "generated", cart.ID)
	assert.Equal(t, "u1", cart.UserID)
}

func TestClient_PatchSendsPartialBody(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/carts/c1", r.URL.Path)

		var fields map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Len(t, fields, 1)
		json.NewEncoder(w).Encode(testCart{ID: "c1", UserID: "u1"})
	})
	defer srv.Close()

	var cart testCart
	err := c.Patch(context.Background(), "carts", "c1", map[string]any{"userId": "u1"}, &cart)
	require.NoError(t, err)
	assert.Equal(t, "c1", cart.ID)
}

func TestClient_DeleteNotFound(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	defer srv.Close()

	err := c.Delete(context.Background(), "carts", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
