package checkout

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10,11}$`)
	fieldCheck   = validator.New()
)

// ShippingInfo is the recipient block attached to every order.
type ShippingInfo struct {
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Province      string  `json:"province"`
	District      string  `json:"district"`
	Ward          string  `json:"ward"`
	AddressDetail string  `json:"address_detail"`
	Note          *string `json:"note,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (s ShippingInfo) Normalize() ShippingInfo {
	s.FullName = strings.TrimSpace(s.FullName)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Province = strings.TrimSpace(s.Province)
	s.District = strings.TrimSpace(s.District)
	s.Ward = strings.TrimSpace(s.Ward)
	s.AddressDetail = strings.TrimSpace(s.AddressDetail)
	if s.Note != nil {
		note := strings.TrimSpace(*s.Note)
		if note == "" {
			s.Note = nil
		} else {
			s.Note = &note
		}
	}
	return s
}

// ValidateShipping checks required fields in a fixed order and reports the
// first failure only.
func ValidateShipping(info ShippingInfo) error {
	required := []struct {
		name  string
		value string
	}{
		{"full_name", info.FullName},
		{"email", info.Email},
		{"phone", info.Phone},
		{"province", info.Province},
		{"district", info.District},
		{"ward", info.Ward},
		{"address_detail", info.AddressDetail},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "Trường %s là bắt buộc", field.name).
				WithDetails(map[string]any{"field": field.name})
		}
	}
	if err := fieldCheck.Var(info.Email, "email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Email không hợp lệ").
			WithDetails(map[string]any{"field": "email"})
	}
	if !phonePattern.MatchString(info.Phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Số điện thoại không hợp lệ").
			WithDetails(map[string]any{"field": "phone"})
	}
	return nil
}
