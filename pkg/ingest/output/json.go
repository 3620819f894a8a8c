// Package output serializes processing results to JSON.
package output

import (
	"encoding/json"

	"github.com/ib-agent/excel-ingest-go/pkg/ingest/models"
)

// ToJSON serializes any result payload, optionally indented.
func ToJSON(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// SheetToJSON serializes one compact document, the per-sheet payload.
func SheetToJSON(doc *models.CompactDocument, pretty bool) ([]byte, error) {
	return ToJSON(doc, pretty)
}
