package entities

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// TestDefinition is a billable laboratory test in the catalog.
type TestDefinition struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"desc"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts both "desc" and "description" for the description.
func (t *TestDefinition) UnmarshalJSON(data []byte) error {
	type plain TestDefinition
	aux := struct {
		*plain
		LongDescription *string `json:"description"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.Description == "" && aux.LongDescription != nil {
		t.Description = *aux.LongDescription
	}
	return nil
}

// Validate checks the definition before it reaches the store.
func (t *TestDefinition) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return apperrors.NewValidationError("test name is required")
	}
	return validatePrice(t.Price)
}

// TestDefinitionPatch carries the fields of a partial catalog update. Nil
// fields are left unchanged.
type TestDefinitionPatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"desc,omitempty"`
}

// Validate checks the fields present in the patch.
func (p TestDefinitionPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperrors.NewValidationError("test name cannot be blank")
	}
	if p.Price != nil {
		return validatePrice(*p.Price)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p TestDefinitionPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil
}

// Apply merges the patch into t.
func (p TestDefinitionPatch) Apply(t *TestDefinition) {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
}

func validatePrice(price float64) error {
	if problem := priceProblem(price); problem != "" {
		return apperrors.NewValidationError(problem)
	}
	return nil
}

func priceProblem(price float64) string {
	switch {
	case math.IsNaN(price) || math.IsInf(price, 0):
		return "price must be a finite number"
	case price < 0:
		return "price must not be negative"
	}
	return ""
}
