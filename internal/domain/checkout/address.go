// internal/domain/checkout/address.go
package checkout

import (
	"regexp"
	"strings"

	"github.com/govinda610/chacha-website/internal/domain/order"
	"github.com/govinda610/chacha-website/internal/pkg/apperrors"
)

// AddressInput is the shipping address as entered during checkout
type AddressInput struct {
	Label       string `json:"label,omitempty"`
	FullAddress string `json:"full_address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	IsDefault   bool   `json:"is_default"`
}

// Address is the saved address record returned by the address service. Once
// an order references it, edits produce a new record rather than mutating
// this one.
type Address struct {
	ID          uint   `json:"id"`
	Label       string `json:"label,omitempty"`
	FullAddress string `json:"full_address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	IsDefault   bool   `json:"is_default"`
}

var (
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	emailRe   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe   = regexp.MustCompile(`^\+?[0-9]{10,13}$`)
)

// Validate checks structural validity and returns field-level errors.
// Validation never touches the network.
func (a AddressInput) Validate() apperrors.FieldErrors {
	var errs apperrors.FieldErrors

	if strings.TrimSpace(a.FullAddress) == "" {
		errs = errs.Add("full_address", "address is required")
	}
	if strings.TrimSpace(a.City) == "" {
		errs = errs.Add("city", "city is required")
	}
	if strings.TrimSpace(a.State) == "" {
		errs = errs.Add("state", "state is required")
	}
	if strings.TrimSpace(a.Pincode) == "" {
		errs = errs.Add("pincode", "pincode is required")
	} else if !pincodeRe.MatchString(strings.TrimSpace(a.Pincode)) {
		errs = errs.Add("pincode", "pincode must be a valid 6-digit code")
	}

	return errs
}

// ValidateContact checks the contact fields required for guest checkouts
func ValidateContact(c *order.GuestContact) apperrors.FieldErrors {
	var errs apperrors.FieldErrors

	if c == nil {
		return errs.Add("contact", "contact details are required for guest checkout")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = errs.Add("name", "name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		errs = errs.Add("email", "email is required")
	} else if !emailRe.MatchString(c.Email) {
		errs = errs.Add("email", "email is not valid")
	}
	if strings.TrimSpace(c.Phone) == "" {
		errs = errs.Add("phone", "phone is required")
	} else if !phoneRe.MatchString(strings.TrimSpace(c.Phone)) {
		errs = errs.Add("phone", "phone is not valid")
	}

	return errs
}

// equalInput reports whether two address submissions carry the same fields
func equalInput(a, b AddressInput) bool {
	return strings.TrimSpace(a.FullAddress) == strings.TrimSpace(b.FullAddress) &&
		strings.TrimSpace(a.City) == strings.TrimSpace(b.City) &&
		strings.TrimSpace(a.State) == strings.TrimSpace(b.State) &&
		strings.TrimSpace(a.Pincode) == strings.TrimSpace(b.Pincode) &&
		a.Label == b.Label
}
