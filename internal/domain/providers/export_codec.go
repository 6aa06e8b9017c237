package providers

import (
	"github.com/zatekoja/medlab/internal/domain/entities"
)

// ExportCodec converts store snapshots to and from the export file format
type ExportCodec interface {
	// Encode renders an export file
	Encode(export *entities.Export) ([]byte, error)

	// Decode validates and reads an import file
	Decode(data []byte) (*entities.ImportPayload, error)
}
