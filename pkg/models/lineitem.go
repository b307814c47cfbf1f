package models

import (
	"fmt"
	"time"
)

// ItemType classifies a catalog item referenced by an invoice line.
type ItemType int

const (
	ItemTypeMaterial ItemType = iota
	ItemTypeEquipment
	ItemTypeService
	ItemTypeOther
)

var itemTypeLabels = map[ItemType]string{
	ItemTypeMaterial:  "Material",
	ItemTypeEquipment: "Equipment",
	ItemTypeService:   "Service",
	ItemTypeOther:     "Other",
}

// ItemTypeFromCode maps a numeric type code to its ItemType.
// Codes outside the known table map to ItemTypeOther.
func ItemTypeFromCode(code int64) ItemType {
	t := ItemType(code)
	if int64(t) != code {
		return ItemTypeOther
	}
	if _, ok := itemTypeLabels[t]; !ok {
		return ItemTypeOther
	}
	return t
}

// String returns the label used in exported tables.
func (t ItemType) String() string {
	if label, ok := itemTypeLabels[t]; ok {
		return label
	}
	return itemTypeLabels[ItemTypeOther]
}

// MarshalText implements encoding.TextMarshaler.
func (t ItemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ItemType) UnmarshalText(text []byte) error {
	for k, label := range itemTypeLabels {
		if label == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown item type %q", string(text))
}

// LineItem is one row of the normalized output table.
type LineItem struct {
	InvoiceID           int64     `json:"invoice_id"`
	CreatedOn           time.Time `json:"created_on"`
	InvoiceItemID       int64     `json:"invoiceitem_id"`
	InvoiceItemName     string    `json:"invoiceitem_name"`
	Type                ItemType  `json:"type"`
	UnitPrice           int64     `json:"unit_price"`
	TotalPrice          int64     `json:"total_price"`
	PercentageInInvoice float64   `json:"percentage_in_invoice"`
	IsExpired           bool      `json:"is_expired"`
}

// Columns lists the output column names in table order.
var Columns = []string{
	"invoice_id",
	"created_on",
	"invoiceitem_id",
	"invoiceitem_name",
	"type",
	"unit_price",
	"total_price",
	"percentage_in_invoice",
	"is_expired",
}

// FormatDate renders a created_on value for tabular output. Dates without a
// clock part print as YYYY-MM-DD, everything else as RFC3339.
func FormatDate(t time.Time) string {
	if t.Equal(t.Truncate(24*time.Hour)) && t.Location() == time.UTC {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
