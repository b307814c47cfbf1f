package invoice

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"invoicetools/internal/logger"
	"invoicetools/pkg/models"
)

// Transformer flattens raw invoices into line item rows.
type Transformer struct {
	expired ExpiredSet
	log     zerolog.Logger
}

// NewTransformer creates a Transformer that flags rows of invoices in expired.
func NewTransformer(expired ExpiredSet) *Transformer {
	return &Transformer{
		expired: expired,
		log:     logger.WithComponent("transformer"),
	}
}

// WithLogger returns a copy of t that logs diagnostics to log.
func (t *Transformer) WithLogger(log zerolog.Logger) *Transformer {
	c := *t
	c.log = log
	return &c
}

// Transform is shorthand for NewTransformer(expired).Transform(invoices).
func Transform(invoices []RawInvoice, expired ExpiredSet) *Result {
	return NewTransformer(expired).Transform(invoices)
}

type parsedInvoice struct {
	id        int64
	createdOn time.Time
	lines     []line
}

type line struct {
	index     int
	quantity  int64
	unitPrice int64
	// total is unitPrice * quantity, or 0 when that does not fit the
	// invoice total.
	total int64
	// details is nil when the nested item object is missing or empty.
	details map[string]interface{}
}

// Transform processes invoices in order and returns the sorted rows together
// with a Skip for every rejected invoice or line. It never fails and does not
// modify its input.
//
// An invoice's total counts every line, including lines whose nested item
// object is missing (they contribute 0). Those lines emit no row, so the
// percentages of such an invoice's rows still divide by the full total.
func (t *Transformer) Transform(invoices []RawInvoice) *Result {
	result := &Result{
		Rows:         []models.LineItem{},
		InvoicesRead: len(invoices),
	}

	for pos, raw := range invoices {
		inv, skip := parseInvoice(raw)
		if skip != nil {
			skip.Position = pos
			t.report(*skip)
			result.Skipped = append(result.Skipped, *skip)
			continue
		}
		result.InvoicesAccepted++

		invoiceTotal := t.sumLines(inv)

		for _, l := range inv.lines {
			if l.details == nil {
				skip := Skip{
					Reason:    SkipMissingItemInfo,
					Position:  pos,
					InvoiceID: inv.id,
					ItemIndex: l.index,
				}
				t.report(skip)
				result.Skipped = append(result.Skipped, skip)
				continue
			}
			result.Rows = append(result.Rows, t.row(inv, l, invoiceTotal))
		}
	}

	sortRows(result.Rows)

	t.log.Debug().
		Int("invoices_read", result.InvoicesRead).
		Int("invoices_accepted", result.InvoicesAccepted).
		Int("rows", len(result.Rows)).
		Int("skipped", len(result.Skipped)).
		Msg("Transform completed")

	return result
}

// sumLines sets the total of every line of inv and returns the invoice total.
// A line whose product or running sum overflows int64 counts as 0 so the
// row totals of an invoice always add up to its invoice total.
func (t *Transformer) sumLines(inv parsedInvoice) int64 {
	var invoiceTotal int64
	for i := range inv.lines {
		l := &inv.lines[i]
		total, ok := mulInt64(l.unitPrice, l.quantity)
		if ok {
			invoiceTotal, ok = addInt64(invoiceTotal, total)
		}
		if !ok {
			t.log.Warn().
				Int64("invoice_id", inv.id).
				Int("item_index", l.index).
				Int64("unit_price", l.unitPrice).
				Int64("quantity", l.quantity).
				Msg("Line total overflows, counting it as 0")
			total = 0
		}
		l.total = total
	}
	return invoiceTotal
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func (t *Transformer) row(inv parsedInvoice, l line, invoiceTotal int64) models.LineItem {
	totalPrice := l.total
	return models.LineItem{
		InvoiceID:           inv.id,
		CreatedOn:           inv.createdOn,
		InvoiceItemID:       CoerceInt(l.details[KeyID]),
		InvoiceItemName:     itemName(l.details),
		Type:                models.ItemTypeFromCode(CoerceInt(l.details[KeyType])),
		UnitPrice:           l.unitPrice,
		TotalPrice:          totalPrice,
		PercentageInInvoice: share(totalPrice, invoiceTotal),
		IsExpired:           t.expired.Contains(inv.id),
	}
}

func (t *Transformer) report(s Skip) {
	event := t.log.Warn().
		Str("reason", string(s.Reason)).
		Int("position", s.Position)

	switch s.Reason {
	case SkipMissingKeys:
		event.Strs("keys", s.Keys).Msg("Missing keys in invoice, skipping")
	case SkipInvalidDate:
		event.Int64("invoice_id", s.InvoiceID).Msg("Invalid date in invoice, skipping")
	case SkipInvalidItems:
		event.Int64("invoice_id", s.InvoiceID).Msg("Invalid items in invoice, skipping")
	case SkipMissingItemInfo:
		event.Int64("invoice_id", s.InvoiceID).
			Int("item_index", s.ItemIndex).
			Msg("Missing item info in invoice, skipping line")
	default:
		event.Int64("invoice_id", s.InvoiceID).Msg("Skipping invoice")
	}
}

// parseInvoice validates a raw record. It returns a non-nil Skip when the
// invoice must be rejected; the Skip's Position is left for the caller.
func parseInvoice(raw RawInvoice) (parsedInvoice, *Skip) {
	rawID, hasID := raw[KeyID]
	rawCreatedOn, hasCreatedOn := raw[KeyCreatedOn]
	rawItems, hasItems := raw[KeyItems]

	if !hasID || !hasCreatedOn || !hasItems {
		return parsedInvoice{}, &Skip{
			Reason:    SkipMissingKeys,
			InvoiceID: CoerceInt(rawID),
			ItemIndex: -1,
			Keys:      sortedKeys(raw),
		}
	}

	id := CoerceInt(rawID)

	createdOn, ok := parseCreatedOn(rawCreatedOn)
	if !ok {
		return parsedInvoice{}, &Skip{Reason: SkipInvalidDate, InvoiceID: id, ItemIndex: -1}
	}

	entries, ok := asSequence(rawItems)
	if !ok {
		return parsedInvoice{}, &Skip{Reason: SkipInvalidItems, InvoiceID: id, ItemIndex: -1}
	}

	lines := make([]line, 0, len(entries))
	for i, entry := range entries {
		lines = append(lines, parseLine(i, entry))
	}

	return parsedInvoice{id: id, createdOn: createdOn, lines: lines}, nil
}

// parseLine reads one entry of an items sequence. Entries that are not
// objects are treated like entries without a nested item object.
func parseLine(index int, entry interface{}) line {
	l := line{index: index}

	fields, ok := asMap(entry)
	if !ok {
		return l
	}
	l.quantity = CoerceInt(fields[KeyQuantity])

	details, ok := asMap(fields[KeyItem])
	if !ok || len(details) == 0 {
		return l
	}
	l.details = details
	l.unitPrice = CoerceInt(details[KeyUnitPrice])
	return l
}

func itemName(details map[string]interface{}) string {
	switch v := details[KeyName].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func share(part, whole int64) float64 {
	if whole == 0 {
		return 0.0
	}
	return float64(part) / float64(whole)
}

func sortRows(rows []models.LineItem) {
	slices.SortStableFunc(rows, func(a, b models.LineItem) int {
		if c := cmp.Compare(a.InvoiceID, b.InvoiceID); c != 0 {
			return c
		}
		return cmp.Compare(a.InvoiceItemID, b.InvoiceItemID)
	})
}

func asSequence(v interface{}) ([]interface{}, bool) {
	switch x := v.(type) {
	case []interface{}:
		return x, true
	case []map[string]interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, true
	default:
		return nil, false
	}
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch x := v.(type) {
	case map[string]interface{}:
		return x, true
	case RawInvoice:
		return x, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
