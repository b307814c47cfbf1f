package export

import (
	"encoding/json"
	"fmt"
	"os"

	"invoicetools/pkg/models"
)

// writeJSON writes rows as a single indented JSON array. An empty table is
// written as [] rather than null.
func writeJSON(path string, rows []models.LineItem) error {
	if rows == nil {
		rows = []models.LineItem{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
