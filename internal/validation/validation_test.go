package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront-api/internal/model"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr string
	}{
		{"valid", "ada@example.com", ""},
		{"valid subdomain", "ada.lovelace@mail.example.co", ""},
		{"empty", "", "Email is required"},
		{"missing at", "ada.example.com", "Invalid email address"},
		{"missing domain", "ada@", "Invalid email address"},
		{"missing tld", "ada@example", "Invalid email address"},
		{"double dot local", "ada..l@example.com", "Invalid email address"},
		{"label starts with hyphen", "ada@-example.com", "Invalid email address"},
		{"single char tld", "ada@example.c", "Invalid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.email)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name    string
		pass    string
		wantErr string
	}{
		{"valid", "Str0ng!pass", ""},
		{"empty", "", "Password must be provided."},
		{"too short", "Ab1!x", "Password must be at least 8 characters long."},
		{"no lowercase", "PASSWORD1!", "Password must include at least one lowercase letter."},
		{"no uppercase", "password1!", "Password must include at least one uppercase letter."},
		{"no digit", "Password!!", "Password must include at least one number."},
		{"no special", "Password11", "Password must include at least one special character (e.g. !, @, #)."},
		{"contains space", "Pass word1!", "Password must not contain spaces."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.pass)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func strPtr(s string) *string              { return &s }
func intPtr(i int) *int                    { return &i }
func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func validProductFields() ProductFields {
	return ProductFields{
		Name:        strPtr("Desk Lamp"),
		Description: strPtr("LED desk lamp with adjustable brightness."),
		Category:    strPtr("Home Decor"),
		Price:       decPtr(decimal.NewFromFloat(29.5)),
		Stock:       intPtr(150),
		Image:       strPtr("img/products/lamp.jpg"),
	}
}

func TestProduct_Create(t *testing.T) {
	require.NoError(t, Product(validProductFields(), true))

	missingName := validProductFields()
	missingName.Name = nil
	assert.EqualError(t, Product(missingName, true), "Product name is required")

	missingImage := validProductFields()
	missingImage.Image = nil
	assert.EqualError(t, Product(missingImage, true), "Product image is required")
}

func TestProduct_Update(t *testing.T) {
	// Updates check only the provided fields.
	require.NoError(t, Product(ProductFields{Stock: intPtr(0)}, false))

	assert.EqualError(t, Product(ProductFields{Name: strPtr("ab")}, false), "Too short product name")
	assert.EqualError(t, Product(ProductFields{Stock: intPtr(-1)}, false), "Product stock must be a positive number")
	assert.EqualError(t, Product(ProductFields{Price: decPtr(decimal.Zero)}, false), "Product price must be a positive number")
}

func validShipping() model.ShippingInfo {
	return model.ShippingInfo{
		FullName:   "Ada Lovelace",
		Address:    "12 Nile Street",
		City:       "Cairo",
		PostalCode: "12345",
		Phone:      "01012345678",
	}
}

func TestShippingInfo(t *testing.T) {
	require.NoError(t, ShippingInfo(validShipping()))

	tests := []struct {
		name    string
		mutate  func(*model.ShippingInfo)
		wantErr string
	}{
		{"missing full name", func(s *model.ShippingInfo) { s.FullName = "" }, "Full Name is required"},
		{"missing address", func(s *model.ShippingInfo) { s.Address = "" }, "Shipping address is required"},
		{"missing city", func(s *model.ShippingInfo) { s.City = "" }, "Shipping city is required"},
		{"missing postal code", func(s *model.ShippingInfo) { s.PostalCode = "" }, "Shipping postalCode is required"},
		{"missing phone", func(s *model.ShippingInfo) { s.Phone = "" }, "Shipping phone is required"},
		{"short address", func(s *model.ShippingInfo) { s.Address = "abc" }, "Too short shipping address"},
		{"short postal code", func(s *model.ShippingInfo) { s.PostalCode = "12" }, "Invalid postal code"},
		{"long postal code", func(s *model.ShippingInfo) { s.PostalCode = "12345678901" }, "Invalid postal code"},
		{"bad phone prefix", func(s *model.ShippingInfo) { s.Phone = "01312345678" }, "Invalid phone number"},
		{"short phone", func(s *model.ShippingInfo) { s.Phone = "0101234567" }, "Invalid phone number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := validShipping()
			tt.mutate(&info)
			assert.EqualError(t, ShippingInfo(info), tt.wantErr)
		})
	}
}

func TestOrderStatus(t *testing.T) {
	for _, status := range []string{"pending", "processing", "shipped", "delivered", "completed"} {
		assert.NoError(t, OrderStatus(status))
	}
	assert.Error(t, OrderStatus("cancelled"))
	assert.Error(t, OrderStatus(""))
}
