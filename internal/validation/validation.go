// Package validation holds the pure rule checks guarding credentials, product
// fields, and shipping info. Violations come back as Error values so callers
// can tell an expected rule failure from a transport problem.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront-api/internal/model"
)

// Error is an expected validation failure. The message is user-facing.
type Error string

func (e Error) Error() string { return string(e) }

var (
	emailLocalRe  = regexp.MustCompile(`^[a-zA-Z0-9_%+-]+(\.[a-zA-Z0-9_%+-]+)*$`)
	domainLabelRe = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)
	lowerRe       = regexp.MustCompile(`[a-z]`)
	upperRe       = regexp.MustCompile(`[A-Z]`)
	digitRe       = regexp.MustCompile(`[0-9]`)
	specialRe     = regexp.MustCompile(`[^\w\s]`)
	spaceRe       = regexp.MustCompile(`\s`)
	phoneRe       = regexp.MustCompile(`^01[0125][0-9]{8}$`)
)

// Email checks local-part@domain shape: local part up to 64 characters with
// no leading, trailing, or doubled dots; domain labels of 1-63 characters
// separated by dots, none starting or ending with a hyphen, whole domain at
// most 255 characters, top-level label at least 2.
func Email(email string) error {
	if email == "" {
		return Error("Email is required")
	}

	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return Error("Invalid email address")
	}

	local, domain := email[:at], email[at+1:]
	if len(local) > 64 || !emailLocalRe.MatchString(local) {
		return Error("Invalid email address")
	}
	if len(domain) > 255 {
		return Error("Invalid email address")
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return Error("Invalid email address")
	}
	for _, label := range labels {
		if len(label) < 1 || len(label) > 63 || !domainLabelRe.MatchString(label) {
			return Error("Invalid email address")
		}
	}
	if len(labels[len(labels)-1]) < 2 {
		return Error("Invalid email address")
	}
	return nil
}

// Password checks length 8-64 and requires a lowercase letter, an uppercase
// letter, a digit, a special character, and no whitespace.
func Password(pass string) error {
	switch {
	case pass == "":
		return Error("Password must be provided.")
	case len(pass) < 8:
		return Error("Password must be at least 8 characters long.")
	case len(pass) > 64:
		return Error("Password must be no more than 64 characters long.")
	case !lowerRe.MatchString(pass):
		return Error("Password must include at least one lowercase letter.")
	case !upperRe.MatchString(pass):
		return Error("Password must include at least one uppercase letter.")
	case !digitRe.MatchString(pass):
		return Error("Password must include at least one number.")
	case !specialRe.MatchString(pass):
		return Error("Password must include at least one special character (e.g. !, @, #).")
	case spaceRe.MatchString(pass):
		return Error("Password must not contain spaces.")
	}
	return nil
}

// ProductFields carries the fields under validation; nil means "not provided".
type ProductFields struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	Image       *string
}

// Product validates product data. On create every field is required; on
// update only the provided fields are checked.
func Product(f ProductFields, create bool) error {
	if create {
		switch {
		case f.Name == nil || *f.Name == "":
			return Error("Product name is required")
		case f.Description == nil || *f.Description == "":
			return Error("Product description is required")
		case f.Category == nil || *f.Category == "":
			return Error("Product category is required")
		case f.Price == nil:
			return Error("Product price is required")
		case f.Stock == nil:
			return Error("Product stock is required")
		case f.Image == nil || *f.Image == "":
			return Error("Product image is required")
		}
	}

	if f.Name != nil && len(*f.Name) < 3 {
		return Error("Too short product name")
	}
	if f.Name != nil && len(*f.Name) > 100 {
		return Error("Too long product name")
	}
	if f.Stock != nil && *f.Stock < 0 {
		return Error("Product stock must be a positive number")
	}
	if f.Price != nil && f.Price.LessThanOrEqual(decimal.Zero) {
		return Error("Product price must be a positive number")
	}
	return nil
}

// ShippingInfo validates the address block embedded in an order. Phone must
// be an Egyptian mobile number (01 then 0, 1, 2, or 5, then 8 digits).
func ShippingInfo(info model.ShippingInfo) error {
	switch {
	case info.FullName == "":
		return Error("Full Name is required")
	case info.Address == "":
		return Error("Shipping address is required")
	case info.City == "":
		return Error("Shipping city is required")
	case info.PostalCode == "":
		return Error("Shipping postalCode is required")
	case info.Phone == "":
		return Error("Shipping phone is required")
	}

	if len(info.Address) < 4 {
		return Error("Too short shipping address")
	}
	if len(info.PostalCode) < 3 || len(info.PostalCode) > 10 {
		return Error("Invalid postal code")
	}
	if !phoneRe.MatchString(info.Phone) {
		return Error("Invalid phone number")
	}
	return nil
}

// OrderStatus checks a status value against the known lifecycle states.
func OrderStatus(status string) error {
	if !model.OrderStatus(status).Valid() {
		return Error(fmt.Sprintf("Invalid order status %q", status))
	}
	return nil
}
