package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govinda610/chacha-website/internal/domain/order"
)

func TestAddressValidateAcceptsCompleteInput(t *testing.T) {
	input := AddressInput{
		FullAddress: "14 MG Road",
		City:        "Bengaluru",
		State:       "Karnataka",
		Pincode:     "560001",
	}
	assert.Empty(t, input.Validate())
}

func TestAddressValidatePincode(t *testing.T) {
	tests := []struct {
		name    string
		pincode string
		valid   bool
	}{
		{"standard", "560001", true},
		{"leading zero", "060001", false},
		{"too short", "56001", false},
		{"too long", "5600011", false},
		{"letters", "56000a", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := AddressInput{
				FullAddress: "14 MG Road",
				City:        "Bengaluru",
				State:       "Karnataka",
				Pincode:     tt.pincode,
			}
			errs := input.Validate()
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				require.NotEmpty(t, errs)
				assert.Equal(t, "pincode", errs[0].Field)
			}
		})
	}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name    string
		contact *order.GuestContact
		valid   bool
	}{
		{"complete", &order.GuestContact{Name: "Asha", Email: "asha@example.com", Phone: "9876543210"}, true},
		{"nil contact", nil, false},
		{"bad email", &order.GuestContact{Name: "Asha", Email: "not-an-email", Phone: "9876543210"}, false},
		{"short phone", &order.GuestContact{Name: "Asha", Email: "asha@example.com", Phone: "98765"}, false},
		{"phone with country code", &order.GuestContact{Name: "Asha", Email: "asha@example.com", Phone: "+919876543210"}, true},
		{"missing name", &order.GuestContact{Email: "asha@example.com", Phone: "9876543210"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateContact(tt.contact)
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
			}
		})
	}
}

func TestEqualInputIgnoresSurroundingWhitespace(t *testing.T) {
	a := AddressInput{FullAddress: "14 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001"}
	b := AddressInput{FullAddress: " 14 MG Road ", City: "Bengaluru", State: "Karnataka", Pincode: "560001 "}
	assert.True(t, equalInput(a, b))

	b.City = "Mysuru"
	assert.False(t, equalInput(a, b))
}
