package entities

import (
	"regexp"
	"strings"
	"time"

	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)
)

// HospitalProfile is the singleton record describing the laboratory's host facility.
type HospitalProfile struct {
	ID            int64     `json:"id,omitempty"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	Department    string    `json:"department"`
	MapLink       string    `json:"location"`
	LicenseNumber string    `json:"license"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Normalize trims surrounding whitespace from every text field.
func (h *HospitalProfile) Normalize() {
	h.Name = strings.TrimSpace(h.Name)
	h.Phone = strings.TrimSpace(h.Phone)
	h.Email = strings.TrimSpace(h.Email)
	h.Address = strings.TrimSpace(h.Address)
	h.Department = strings.TrimSpace(h.Department)
	h.MapLink = strings.TrimSpace(h.MapLink)
	h.LicenseNumber = strings.TrimSpace(h.LicenseNumber)
}

// Validate checks the profile. Email and phone are optional but must be
// well formed when present.
func (h *HospitalProfile) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return apperrors.NewValidationError("hospital name is required")
	}
	if h.Email != "" && !ValidEmail(h.Email) {
		return apperrors.NewValidationError("hospital email is not a valid address")
	}
	if h.Phone != "" && !ValidPhone(h.Phone) {
		return apperrors.NewValidationError("hospital phone may only contain digits, spaces and + - ( )")
	}
	return nil
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s only contains phone number characters.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}
