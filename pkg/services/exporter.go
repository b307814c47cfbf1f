package services

import (
	"context"

	"invoicetools/pkg/models"
)

// Exporter defines the interface for writing a normalized line item table
// to a destination (a local file, a spreadsheet).
type Exporter interface {
	// Export writes rows in the order given. Implementations write the
	// columns in models.Columns order.
	Export(ctx context.Context, rows []models.LineItem) error
}
