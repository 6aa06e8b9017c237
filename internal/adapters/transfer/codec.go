// Package transfer reads and writes the export file exchanged by export,
// import and backup.
package transfer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/providers"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// maxReportedProblems caps the schema errors quoted back to the caller.
const maxReportedProblems = 5

// Codec implements providers.ExportCodec with the package functions.
type Codec struct{}

var _ providers.ExportCodec = Codec{}

func (Codec) Encode(export *entities.Export) ([]byte, error) { return Marshal(export) }

func (Codec) Decode(data []byte) (*entities.ImportPayload, error) { return Decode(data) }

// Encode writes export as indented JSON.
func Encode(w io.Writer, export *entities.Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return apperrors.NewInternalError("failed to encode export", err)
	}
	return nil
}

// Marshal returns export as indented JSON.
func Marshal(export *entities.Export) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, export); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes an import file from r.
func Read(r io.Reader) (*entities.ImportPayload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("failed to read import file: %v", err))
	}
	return Decode(data)
}

// Decode validates the envelope against the export schema and converts its
// records. Records are read leniently: ids and prices may be numbers or
// numeric strings, and missing optional fields take the same defaults the
// entry forms use. Tests without a name or price and results without a
// patient name, patient ID or test results are dropped and counted.
func Decode(data []byte) (*entities.ImportPayload, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("import file is not valid JSON: %v", err))
	}
	if !result.Valid() {
		return nil, apperrors.NewValidationError("import file does not match the export format: " + describe(result.Errors()))
	}

	var raw rawExport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("import file is malformed: %v", err))
	}
	if raw.Version > entities.ExportVersion {
		return nil, apperrors.NewValidationError(fmt.Sprintf("export version %d is newer than supported version %d", raw.Version, entities.ExportVersion))
	}

	decoded := &entities.ImportPayload{Export: &entities.Export{
		Version:    raw.Version,
		ExportDate: raw.ExportDate.Time,
		Data: entities.ExportData{
			Tests:   make([]*entities.TestDefinition, 0, len(raw.Data.Tests)),
			Results: make([]*entities.Encounter, 0, len(raw.Data.Results)),
		},
	}}

	if raw.Data.Hospital != nil {
		decoded.Export.Data.Hospital = raw.Data.Hospital.profile()
	}
	for _, t := range raw.Data.Tests {
		def, ok := t.definition()
		if !ok {
			decoded.Rejected.Tests++
			continue
		}
		decoded.Export.Data.Tests = append(decoded.Export.Data.Tests, def)
	}
	for _, r := range raw.Data.Results {
		encounter, ok := r.encounter()
		if !ok {
			decoded.Rejected.Results++
			continue
		}
		decoded.Export.Data.Results = append(decoded.Export.Data.Results, encounter)
	}
	return decoded, nil
}

func describe(errs []gojsonschema.ResultError) string {
	problems := make([]string, 0, maxReportedProblems)
	for i, e := range errs {
		if i == maxReportedProblems {
			problems = append(problems, fmt.Sprintf("and %d more", len(errs)-i))
			break
		}
		problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return strings.Join(problems, "; ")
}

type rawExport struct {
	Version    int      `json:"version"`
	ExportDate flexTime `json:"exportDate"`
	Data       struct {
		Hospital *rawHospital `json:"hospital"`
		Tests    []rawTest    `json:"tests"`
		Results  []rawResult  `json:"results"`
	} `json:"data"`
}

type rawHospital struct {
	Name          flexString `json:"name"`
	Phone         flexString `json:"phone"`
	Email         flexString `json:"email"`
	Address       flexString `json:"address"`
	Department    flexString `json:"department"`
	MapLink       flexString `json:"location"`
	LicenseNumber flexString `json:"license"`
	CreatedAt     flexTime   `json:"createdAt"`
	UpdatedAt     flexTime   `json:"updatedAt"`
}

func (h *rawHospital) profile() *entities.HospitalProfile {
	profile := &entities.HospitalProfile{
		Name:          h.Name.Value,
		Phone:         h.Phone.Value,
		Email:         h.Email.Value,
		Address:       h.Address.Value,
		Department:    h.Department.Value,
		MapLink:       h.MapLink.Value,
		LicenseNumber: h.LicenseNumber.Value,
		CreatedAt:     h.CreatedAt.Time,
		UpdatedAt:     h.UpdatedAt.Time,
	}
	profile.Normalize()
	return profile
}

type rawTest struct {
	Name            flexString `json:"name"`
	Price           flexFloat  `json:"price"`
	Description     flexString `json:"desc"`
	LongDescription flexString `json:"description"`
	CreatedAt       flexTime   `json:"createdAt"`
	UpdatedAt       flexTime   `json:"updatedAt"`
}

func (t rawTest) definition() (*entities.TestDefinition, bool) {
	name := strings.TrimSpace(t.Name.Value)
	if name == "" || !t.Price.Set {
		return nil, false
	}
	desc := t.Description.Value
	if desc == "" {
		desc = t.LongDescription.Value
	}
	return &entities.TestDefinition{
		Name:        name,
		Price:       t.Price.Value,
		Description: desc,
		CreatedAt:   t.CreatedAt.Time,
		UpdatedAt:   t.UpdatedAt.Time,
	}, true
}

type rawResult struct {
	PatientName   flexString    `json:"patientName"`
	PatientAge    flexFloat     `json:"patientAge"`
	PatientGender flexString    `json:"patientGender"`
	PatientID     flexString    `json:"patientID"`
	LineItems     []rawLineItem `json:"testsResults"`
	Date          flexTime      `json:"date"`
	CreatedAt     flexTime      `json:"createdAt"`
	UpdatedAt     flexTime      `json:"updatedAt"`
}

func (r rawResult) encounter() (*entities.Encounter, bool) {
	name := strings.TrimSpace(r.PatientName.Value)
	patientID := strings.TrimSpace(r.PatientID.Value)
	if name == "" || patientID == "" || r.LineItems == nil {
		return nil, false
	}

	gender := entities.Gender(strings.ToLower(strings.TrimSpace(r.PatientGender.Value)))
	if !gender.Valid() {
		gender = entities.GenderMale
	}

	items := make([]entities.LineItem, 0, len(r.LineItems))
	for _, item := range r.LineItems {
		items = append(items, entities.LineItem{
			TestID:         int64(item.TestID.Value),
			TestName:       item.TestName.Value,
			ReportedValue:  item.ReportedValue.Value,
			ReferenceRange: item.ReferenceRange.Value,
			Price:          item.Price.Value,
		})
	}

	return &entities.Encounter{
		PatientName:   name,
		PatientAge:    int(r.PatientAge.Value),
		PatientGender: gender,
		PatientID:     patientID,
		LineItems:     items,
		Date:          r.Date.Time,
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}, true
}

type rawLineItem struct {
	TestID         flexFloat  `json:"testId"`
	TestName       flexString `json:"testName"`
	ReportedValue  flexString `json:"result"`
	ReferenceRange flexString `json:"normal"`
	Price          flexFloat  `json:"price"`
}

func toTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
