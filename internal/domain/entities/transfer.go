package entities

import (
	"strings"
	"time"
)

// ExportVersion is the schema version written into every export.
const ExportVersion = 1

// Export is the full store snapshot exchanged by export and import.
type Export struct {
	Version    int        `json:"version"`
	ExportDate time.Time  `json:"exportDate"`
	Data       ExportData `json:"data"`
}

// ExportData holds the three collections.
type ExportData struct {
	Hospital *HospitalProfile  `json:"hospital"`
	Tests    []*TestDefinition `json:"tests"`
	Results  []*Encounter      `json:"results"`
}

// ImportCount tallies one collection of an import.
type ImportCount struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	Hospital bool        `json:"hospital"`
	Tests    ImportCount `json:"tests"`
	Results  ImportCount `json:"results"`
}

// Failed returns the number of records that were not imported.
func (r ImportResult) Failed() int {
	return r.Tests.Failed + r.Results.Failed
}

// Importable reports whether the definition carries the fields an import
// requires.
func (t *TestDefinition) Importable() bool {
	return t != nil && strings.TrimSpace(t.Name) != "" && priceProblem(t.Price) == ""
}

// Importable reports whether the encounter carries the fields an import
// requires.
func (e *Encounter) Importable() bool {
	return e != nil &&
		strings.TrimSpace(e.PatientName) != "" &&
		strings.TrimSpace(e.PatientID) != "" &&
		len(e.LineItems) > 0
}

// ImportPayload is a decoded import file.
type ImportPayload struct {
	Export *Export
	// Rejected counts the records the decoder dropped for missing
	// required fields.
	Rejected ImportRejections
}

// ImportRejections counts dropped records per collection.
type ImportRejections struct {
	Tests   int
	Results int
}
