package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/go-storefront-api/internal/dto"
	"github.com/flicky/go-storefront-api/internal/model"
	"github.com/flicky/go-storefront-api/internal/validation"
)

const testSecret = "test-secret"

func registerRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "Sup3r$ecret",
	}
}

func TestAuthService_Register(t *testing.T) {
	users := newMockUserRepo()
	svc := NewAuthService(users, testSecret, time.Hour)

	resp, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, model.RoleCustomer, resp.User.Role, "registration never grants admin")

	stored, err := users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3r$ecret", stored.Password, "password stored hashed")

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims["sub"])
	assert.Equal(t, string(model.RoleCustomer), claims["role"])
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), testSecret, time.Hour)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*dto.RegisterRequest)
		message string
	}{
		{"missing email", func(r *dto.RegisterRequest) { r.Email = "" }, "Email is required"},
		{"bad email", func(r *dto.RegisterRequest) { r.Email = "ada@@example" }, "Invalid email address"},
		{"missing password", func(r *dto.RegisterRequest) { r.Password = "" }, "Password must be provided."},
		{"weak password", func(r *dto.RegisterRequest) { r.Password = "alllowercase1!" }, "Password must include at least one uppercase letter."},
		{"missing name", func(r *dto.RegisterRequest) { r.Name = "" }, "Name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerRequest()
			tt.mutate(&req)
			_, err := svc.Register(ctx, req)
			var verr validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, string(verr))
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	users := newMockUserRepo(model.User{ID: "u1", Email: "ada@example.com"})
	svc := NewAuthService(users, testSecret, time.Hour)

	_, err := svc.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("Sup3r$ecret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := newMockUserRepo(model.User{
		ID: "u1", Email: "ada@example.com", Password: string(hashed), Name: "Ada Lovelace", Role: model.RoleCustomer,
	})
	svc := NewAuthService(users, testSecret, time.Hour)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "Sup3r$ecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "u1", resp.User.ID)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "Sup3r$ecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email reads the same as a wrong password")
}

func TestAuthService_CurrentUser(t *testing.T) {
	users := newMockUserRepo(model.User{ID: "u1", Email: "ada@example.com", Name: "Ada Lovelace", Role: model.RoleCustomer})
	svc := NewAuthService(users, testSecret, time.Hour)

	resp, err := svc.CurrentUser(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.Equal(t, "Ada Lovelace", resp.Name)
}
