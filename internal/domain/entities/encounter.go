package entities

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// Gender of the patient on an encounter
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// LineItem is one test performed during an encounter. Name and price are
// copied from the catalog when the encounter is recorded and never follow
// later catalog edits.
type LineItem struct {
	TestID         int64   `json:"testId"`
	TestName       string  `json:"testName"`
	ReportedValue  string  `json:"result"`
	ReferenceRange string  `json:"normal"`
	Price          float64 `json:"price"`
}

// Encounter is a patient's visit with the tests performed and their results.
type Encounter struct {
	ID            int64      `json:"id"`
	PatientName   string     `json:"patientName"`
	PatientAge    int        `json:"patientAge"`
	PatientGender Gender     `json:"patientGender"`
	PatientID     string     `json:"patientID"`
	LineItems     []LineItem `json:"testsResults"`
	Date          time.Time  `json:"date"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Validate checks the encounter before it reaches the store.
func (e *Encounter) Validate() error {
	if strings.TrimSpace(e.PatientName) == "" {
		return apperrors.NewValidationError("patient name is required")
	}
	if strings.TrimSpace(e.PatientID) == "" {
		return apperrors.NewValidationError("patient ID is required")
	}
	if e.PatientAge < 0 {
		return apperrors.NewValidationError("patient age must not be negative")
	}
	if !e.PatientGender.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("patient gender must be %q or %q", GenderMale, GenderFemale))
	}
	return validateLineItems(e.LineItems)
}

// EncounterPatch carries the fields of a partial encounter update. The
// encounter date is immutable and has no patch field.
type EncounterPatch struct {
	PatientName   *string     `json:"patientName,omitempty"`
	PatientAge    *int        `json:"patientAge,omitempty"`
	PatientGender *Gender     `json:"patientGender,omitempty"`
	PatientID     *string     `json:"patientID,omitempty"`
	LineItems     *[]LineItem `json:"testsResults,omitempty"`
}

// Validate checks the fields present in the patch.
func (p EncounterPatch) Validate() error {
	if p.PatientName != nil && strings.TrimSpace(*p.PatientName) == "" {
		return apperrors.NewValidationError("patient name cannot be blank")
	}
	if p.PatientID != nil && strings.TrimSpace(*p.PatientID) == "" {
		return apperrors.NewValidationError("patient ID cannot be blank")
	}
	if p.PatientAge != nil && *p.PatientAge < 0 {
		return apperrors.NewValidationError("patient age must not be negative")
	}
	if p.PatientGender != nil && !p.PatientGender.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("patient gender must be %q or %q", GenderMale, GenderFemale))
	}
	if p.LineItems != nil {
		return validateLineItems(*p.LineItems)
	}
	return nil
}

// Apply merges the patch into e.
func (p EncounterPatch) Apply(e *Encounter) {
	if p.PatientName != nil {
		e.PatientName = strings.TrimSpace(*p.PatientName)
	}
	if p.PatientAge != nil {
		e.PatientAge = *p.PatientAge
	}
	if p.PatientGender != nil {
		e.PatientGender = *p.PatientGender
	}
	if p.PatientID != nil {
		e.PatientID = strings.TrimSpace(*p.PatientID)
	}
	if p.LineItems != nil {
		e.LineItems = append([]LineItem(nil), (*p.LineItems)...)
	}
}

// EncounterDraft is an encounter being recorded from catalog test ids.
type EncounterDraft struct {
	PatientName   string        `json:"patientName"`
	PatientAge    int           `json:"patientAge"`
	PatientGender Gender        `json:"patientGender"`
	PatientID     string        `json:"patientID"`
	Results       []DraftResult `json:"results"`
}

// DraftResult is the reported value for one catalog test on a draft.
type DraftResult struct {
	TestID         int64  `json:"testId"`
	ReportedValue  string `json:"result"`
	ReferenceRange string `json:"normal"`
}

func validateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return apperrors.NewValidationError("at least one test result is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item.TestName) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("test result %d has no test name", i+1))
		}
		if problem := priceProblem(item.Price); problem != "" {
			return apperrors.NewValidationError(fmt.Sprintf("test result %d: %s", i+1, problem))
		}
	}
	return nil
}
