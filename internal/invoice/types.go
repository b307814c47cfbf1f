// Package invoice turns raw, loosely typed invoice records into a flat table
// of line items.
//
// Raw records come from a Loader as generic maps. Each invoice is checked for
// its required keys, a readable created_on date and an items sequence before
// any of its lines are read. Rejected invoices and lines are reported as Skip
// values alongside the produced rows; they never abort a run. Numeric fields
// are read with CoerceInt, which maps anything unreadable to 0.
//
// Only two conditions are fatal: a malformed expired invoice id list and an
// invoice store that cannot be read or decoded.
package invoice

import (
	"fmt"
	"strings"

	"invoicetools/pkg/models"
)

// Keys of a raw invoice record.
const (
	KeyID        = "id"
	KeyCreatedOn = "created_on"
	KeyItems     = "items"
)

// Keys of a raw item entry and of its nested item object.
const (
	KeyQuantity  = "quantity"
	KeyItem      = "item"
	KeyName      = "name"
	KeyType      = "type"
	KeyUnitPrice = "unit_price"
)

// RawInvoice is one undecoded invoice record as produced by a Loader.
type RawInvoice map[string]interface{}

// SkipReason names why an invoice or one of its lines produced no rows.
type SkipReason string

const (
	SkipMissingKeys     SkipReason = "missing_keys"
	SkipInvalidDate     SkipReason = "invalid_date"
	SkipInvalidItems    SkipReason = "invalid_items"
	SkipMissingItemInfo SkipReason = "missing_item_info"
)

// Skip is the diagnostic recorded for a rejected invoice or line.
type Skip struct {
	Reason SkipReason

	// Position is the index of the invoice in the loaded sequence.
	Position int

	// InvoiceID is the coerced invoice id. It is 0 when the record had no id.
	InvoiceID int64

	// ItemIndex is the index of the skipped line, or -1 when the whole
	// invoice was rejected.
	ItemIndex int

	// Keys lists the keys present on the record, for SkipMissingKeys.
	Keys []string
}

// InvoiceLevel reports whether the whole invoice was rejected.
func (s Skip) InvoiceLevel() bool {
	return s.ItemIndex < 0
}

// String implements fmt.Stringer.
func (s Skip) String() string {
	switch s.Reason {
	case SkipMissingKeys:
		return fmt.Sprintf("invoice #%d: missing keys (present: %s)", s.Position, strings.Join(s.Keys, ", "))
	case SkipMissingItemInfo:
		return fmt.Sprintf("invoice %d: missing item info at line %d", s.InvoiceID, s.ItemIndex)
	default:
		return fmt.Sprintf("invoice %d: %s", s.InvoiceID, s.Reason)
	}
}

// Result is the outcome of one transform run.
type Result struct {
	// Rows is sorted by invoice id, then invoice item id.
	Rows []models.LineItem

	// Skipped holds one entry per rejected invoice or line, in input order.
	Skipped []Skip

	InvoicesRead     int
	InvoicesAccepted int
}

// SkippedInvoices counts invoice-level rejections.
func (r *Result) SkippedInvoices() int {
	n := 0
	for _, s := range r.Skipped {
		if s.InvoiceLevel() {
			n++
		}
	}
	return n
}

// SkippedLines counts line-level rejections.
func (r *Result) SkippedLines() int {
	return len(r.Skipped) - r.SkippedInvoices()
}
