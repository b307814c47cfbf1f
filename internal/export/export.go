// Package export writes the normalized line item table to local files and
// prints samples of it.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"invoicetools/internal/logger"
	"invoicetools/pkg/models"
)

// ErrUnsupportedOutput is returned for output paths without a known extension.
var ErrUnsupportedOutput = errors.New("unsupported output format")

// Format identifies a table file encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

// FormatFor returns the output format implied by path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".parquet":
		return FormatParquet, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOutput, filepath.Ext(path))
	}
}

// FileExporter writes line items to a single file. It implements
// services.Exporter.
type FileExporter struct {
	path   string
	format Format
	log    zerolog.Logger
}

// NewFileExporter creates an exporter for path, choosing the encoding from
// its extension.
func NewFileExporter(path string) (*FileExporter, error) {
	const op = "NewFileExporter"

	format, err := FormatFor(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &FileExporter{
		path:   path,
		format: format,
		log:    logger.WithComponent("export"),
	}, nil
}

// Path returns the destination file.
func (e *FileExporter) Path() string {
	return e.path
}

// Format returns the encoding used.
func (e *FileExporter) Format() Format {
	return e.format
}

// Export writes rows to the destination file, replacing any previous
// content.
func (e *FileExporter) Export(ctx context.Context, rows []models.LineItem) error {
	const op = "Export"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.log.Debug().
		Str("path", e.path).
		Str("format", string(e.format)).
		Int("rows", len(rows)).
		Msg("Writing line items")

	var err error
	switch e.format {
	case FormatCSV:
		err = writeCSV(e.path, rows)
	case FormatJSON:
		err = writeJSON(e.path, rows)
	case FormatParquet:
		err = writeParquet(e.path, rows)
	case FormatXLSX:
		err = writeXLSX(e.path, rows)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedOutput, e.format)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.log.Info().
		Str("path", e.path).
		Int("rows", len(rows)).
		Msg("Line items written")

	return nil
}

// record renders a row as text cells in models.Columns order.
func record(row models.LineItem) []string {
	return []string{
		strconv.FormatInt(row.InvoiceID, 10),
		models.FormatDate(row.CreatedOn),
		strconv.FormatInt(row.InvoiceItemID, 10),
		row.InvoiceItemName,
		row.Type.String(),
		strconv.FormatInt(row.UnitPrice, 10),
		strconv.FormatInt(row.TotalPrice, 10),
		strconv.FormatFloat(row.PercentageInInvoice, 'f', -1, 64),
		strconv.FormatBool(row.IsExpired),
	}
}
