package invoice

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"invoicetools/pkg/models"
)

func item(quantity interface{}, id, name, typ, unitPrice interface{}) map[string]interface{} {
	return map[string]interface{}{
		KeyQuantity: quantity,
		KeyItem: map[string]interface{}{
			KeyID:        id,
			KeyName:      name,
			KeyType:      typ,
			KeyUnitPrice: unitPrice,
		},
	}
}

func rawInvoice(id interface{}, createdOn interface{}, items ...interface{}) RawInvoice {
	if items == nil {
		items = []interface{}{}
	}
	return RawInvoice{
		KeyID:        id,
		KeyCreatedOn: createdOn,
		KeyItems:     items,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransformScenarioA(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(1, "2024-01-01", item(2, 10, "Bolt", 0, 5)),
	}

	result := Transform(invoices, NewExpiredSet())

	want := []models.LineItem{{
		InvoiceID:           1,
		CreatedOn:           date(2024, time.January, 1),
		InvoiceItemID:       10,
		InvoiceItemName:     "Bolt",
		Type:                models.ItemTypeMaterial,
		UnitPrice:           5,
		TotalPrice:          10,
		PercentageInInvoice: 1.0,
		IsExpired:           false,
	}}
	if diff := cmp.Diff(want, result.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("unexpected skips: %v", result.Skipped)
	}
	if result.InvoicesRead != 1 || result.InvoicesAccepted != 1 {
		t.Errorf("counters = %d read, %d accepted", result.InvoicesRead, result.InvoicesAccepted)
	}
}

func TestTransformScenarioBMissingCreatedOn(t *testing.T) {
	invoices := []RawInvoice{{
		KeyID:    1,
		KeyItems: []interface{}{item(2, 10, "Bolt", 0, 5)},
	}}

	result := Transform(invoices, NewExpiredSet())

	if len(result.Rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(result.Rows))
	}
	want := []Skip{{
		Reason:    SkipMissingKeys,
		Position:  0,
		InvoiceID: 1,
		ItemIndex: -1,
		Keys:      []string{"id", "items"},
	}}
	if diff := cmp.Diff(want, result.Skipped); diff != "" {
		t.Errorf("skips mismatch (-want +got):\n%s", diff)
	}
	if result.SkippedInvoices() != 1 || result.SkippedLines() != 0 {
		t.Errorf("skip counters = %d invoices, %d lines", result.SkippedInvoices(), result.SkippedLines())
	}
}

func TestTransformScenarioCMissingNestedItem(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(1, "2024-01-01",
			item(2, 10, "Bolt", 0, 5),
			map[string]interface{}{KeyQuantity: 3},
			map[string]interface{}{KeyQuantity: 4, KeyItem: map[string]interface{}{}},
		),
	}

	result := Transform(invoices, NewExpiredSet())

	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(result.Rows))
	}
	// The skipped lines count as zero toward the invoice total.
	if got := result.Rows[0].PercentageInInvoice; got != 1.0 {
		t.Errorf("percentage = %v, want 1.0", got)
	}

	want := []Skip{
		{Reason: SkipMissingItemInfo, InvoiceID: 1, ItemIndex: 1},
		{Reason: SkipMissingItemInfo, InvoiceID: 1, ItemIndex: 2},
	}
	if diff := cmp.Diff(want, result.Skipped); diff != "" {
		t.Errorf("skips mismatch (-want +got):\n%s", diff)
	}
	if result.SkippedLines() != 2 {
		t.Errorf("SkippedLines = %d, want 2", result.SkippedLines())
	}
}

func TestTransformScenarioDNonNumericPrice(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(1, "2024-01-01",
			item(3, 10, "Nut", 0, "abc"),
			item(1, 11, "Washer", 0, 4),
		),
	}

	result := Transform(invoices, NewExpiredSet())

	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	nut, washer := result.Rows[0], result.Rows[1]
	if nut.UnitPrice != 0 || nut.TotalPrice != 0 || nut.PercentageInInvoice != 0 {
		t.Errorf("nut = %+v, want zero price and share", nut)
	}
	if washer.TotalPrice != 4 || washer.PercentageInInvoice != 1.0 {
		t.Errorf("washer = %+v, want total 4 and share 1.0", washer)
	}
}

func TestTransformScenarioEExpired(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(2, "2024-02-01", item(1, 20, "Drill", 1, 100), item(1, 21, "Bit", 1, 10)),
		rawInvoice(4, "2024-02-02", item(1, 40, "Audit", 2, 50)),
	}
	expired := NewExpiredSet(1, 2, 3)

	result := Transform(invoices, expired)

	if len(result.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(result.Rows))
	}
	for _, row := range result.Rows {
		if got, want := row.IsExpired, expired.Contains(row.InvoiceID); got != want {
			t.Errorf("invoice %d item %d: IsExpired = %v, want %v", row.InvoiceID, row.InvoiceItemID, got, want)
		}
	}
}

func TestTransformRejectsInvoices(t *testing.T) {
	tests := []struct {
		name   string
		raw    RawInvoice
		reason SkipReason
	}{
		{"missing id", RawInvoice{KeyCreatedOn: "2024-01-01", KeyItems: []interface{}{}}, SkipMissingKeys},
		{"missing items", RawInvoice{KeyID: 1, KeyCreatedOn: "2024-01-01"}, SkipMissingKeys},
		{"unparseable date", rawInvoice(1, "2024-13-45", item(1, 1, "a", 0, 1)), SkipInvalidDate},
		{"null date", rawInvoice(1, nil, item(1, 1, "a", 0, 1)), SkipInvalidDate},
		{"empty date", rawInvoice(1, "  ", item(1, 1, "a", 0, 1)), SkipInvalidDate},
		{"boolean date", rawInvoice(1, true, item(1, 1, "a", 0, 1)), SkipInvalidDate},
		{"items is a map", RawInvoice{KeyID: 1, KeyCreatedOn: "2024-01-01", KeyItems: map[string]interface{}{"a": 1}}, SkipInvalidItems},
		{"items is a string", RawInvoice{KeyID: 1, KeyCreatedOn: "2024-01-01", KeyItems: "abc"}, SkipInvalidItems},
		{"items is null", RawInvoice{KeyID: 1, KeyCreatedOn: "2024-01-01", KeyItems: nil}, SkipInvalidItems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Transform([]RawInvoice{tt.raw}, NewExpiredSet())
			if len(result.Rows) != 0 {
				t.Errorf("got %d rows, want 0", len(result.Rows))
			}
			if len(result.Skipped) != 1 {
				t.Fatalf("got %d skips, want 1", len(result.Skipped))
			}
			s := result.Skipped[0]
			if s.Reason != tt.reason || !s.InvoiceLevel() {
				t.Errorf("skip = %+v, want invoice-level %s", s, tt.reason)
			}
			if result.InvoicesAccepted != 0 {
				t.Errorf("InvoicesAccepted = %d, want 0", result.InvoicesAccepted)
			}
		})
	}
}

func TestTransformContinuesAfterSkip(t *testing.T) {
	invoices := []RawInvoice{
		{KeyID: 1},
		rawInvoice(2, "2024-01-01", item(1, 5, "x", 0, 1)),
		rawInvoice(3, "2024-02-30", item(1, 5, "x", 0, 1)),
		rawInvoice(4, "2024-01-01", item(1, 5, "x", 0, 1)),
	}

	result := Transform(invoices, NewExpiredSet())

	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(result.Rows))
	}
	if result.Rows[0].InvoiceID != 2 || result.Rows[1].InvoiceID != 4 {
		t.Errorf("rows belong to invoices %d and %d", result.Rows[0].InvoiceID, result.Rows[1].InvoiceID)
	}
	if len(result.Skipped) != 2 || result.Skipped[0].Position != 0 || result.Skipped[1].Position != 2 {
		t.Errorf("skips = %+v", result.Skipped)
	}
}

func TestTransformFieldDerivation(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice("7", "2024-03-05T10:30:00Z",
			map[string]interface{}{
				KeyQuantity: "4",
				KeyItem: map[string]interface{}{
					KeyID:        "70",
					KeyType:      9,
					KeyUnitPrice: 2.9,
				},
			},
			map[string]interface{}{
				KeyQuantity: nil,
				KeyItem: map[string]interface{}{
					KeyID:        71,
					KeyName:      42,
					KeyType:      "2",
					KeyUnitPrice: 3,
				},
			},
		),
	}

	result := Transform(invoices, NewExpiredSet(7))

	created := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	want := []models.LineItem{
		{
			InvoiceID:           7,
			CreatedOn:           created,
			InvoiceItemID:       70,
			InvoiceItemName:     "",
			Type:                models.ItemTypeOther,
			UnitPrice:           2,
			TotalPrice:          8,
			PercentageInInvoice: 1.0,
			IsExpired:           true,
		},
		{
			InvoiceID:           7,
			CreatedOn:           created,
			InvoiceItemID:       71,
			InvoiceItemName:     "42",
			Type:                models.ItemTypeService,
			UnitPrice:           3,
			TotalPrice:          0,
			PercentageInInvoice: 0,
			IsExpired:           true,
		},
	}
	if diff := cmp.Diff(want, result.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformNonObjectLine(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(1, "2024-01-01", "junk", item(1, 1, "a", 0, 3)),
	}

	result := Transform(invoices, NewExpiredSet())

	if len(result.Rows) != 1 || result.Rows[0].PercentageInInvoice != 1.0 {
		t.Fatalf("rows = %+v", result.Rows)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != SkipMissingItemInfo || result.Skipped[0].ItemIndex != 0 {
		t.Errorf("skips = %+v", result.Skipped)
	}
}

func TestTransformSortOrder(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(3, "2024-01-03", item(1, 2, "c2", 0, 1), item(1, 1, "c1", 0, 1)),
		rawInvoice(1, "2024-01-01", item(1, 9, "a9", 0, 1), item(1, 4, "a4", 0, 1)),
		rawInvoice(2, "2024-01-02", item(1, 5, "b5", 0, 1)),
		rawInvoice(1, "2024-01-04", item(1, 4, "a4-dup", 0, 1)),
	}

	rows := Transform(invoices, NewExpiredSet()).Rows

	for i := 0; i+1 < len(rows); i++ {
		a, b := rows[i], rows[i+1]
		if a.InvoiceID > b.InvoiceID || (a.InvoiceID == b.InvoiceID && a.InvoiceItemID > b.InvoiceItemID) {
			t.Errorf("rows %d and %d out of order: (%d,%d) before (%d,%d)",
				i, i+1, a.InvoiceID, a.InvoiceItemID, b.InvoiceID, b.InvoiceItemID)
		}
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.InvoiceItemName
	}
	want := []string{"a4", "a4-dup", "a9", "b5", "c1", "c2"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformTotalsAndShares(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(1, "2024-01-01", item(2, 1, "a", 0, 5), item(3, 2, "b", 1, 7), item(1, 3, "c", 2, 100)),
		rawInvoice(2, "2024-01-01", item(0, 1, "a", 0, 5), item(3, 2, "b", 1, 0)),
		rawInvoice(3, "2024-01-01", item(1, 1, "a", 0, 3), item(1, 2, "b", 0, 7)),
	}
	wantTotals := map[int64]int64{1: 10 + 21 + 100, 2: 0, 3: 10}

	rows := Transform(invoices, NewExpiredSet()).Rows

	totals := map[int64]int64{}
	shares := map[int64]float64{}
	for _, r := range rows {
		totals[r.InvoiceID] += r.TotalPrice
		shares[r.InvoiceID] += r.PercentageInInvoice
	}
	for id, want := range wantTotals {
		if totals[id] != want {
			t.Errorf("invoice %d: sum of total_price = %d, want %d", id, totals[id], want)
		}
		wantShare := 1.0
		if want == 0 {
			wantShare = 0
		}
		if math.Abs(shares[id]-wantShare) > 1e-9 {
			t.Errorf("invoice %d: sum of shares = %v, want %v", id, shares[id], wantShare)
		}
	}
	for _, r := range rows {
		if r.InvoiceID == 2 && r.PercentageInInvoice != 0 {
			t.Errorf("zero-total invoice row has share %v", r.PercentageInInvoice)
		}
	}
}

func TestTransformOverflow(t *testing.T) {
	tests := []struct {
		name       string
		items      []interface{}
		wantTotals []int64
		wantShares []float64
	}{
		{
			name: "product wraps to zero",
			items: []interface{}{
				item(int64(1)<<32, 1, "huge", 0, int64(1)<<32),
				item(1, 2, "cheap", 0, 5),
			},
			wantTotals: []int64{0, 5},
			wantShares: []float64{0, 1},
		},
		{
			name: "product wraps negative",
			items: []interface{}{
				item(int64(math.MaxInt64), 1, "huge", 0, 2),
				item(1, 2, "cheap", 0, 3),
			},
			wantTotals: []int64{0, 3},
			wantShares: []float64{0, 1},
		},
		{
			name: "min int times minus one",
			items: []interface{}{
				item(-1, 1, "huge", 0, int64(math.MinInt64)),
				item(1, 2, "cheap", 0, 4),
			},
			wantTotals: []int64{0, 4},
			wantShares: []float64{0, 1},
		},
		{
			name: "running sum overflows",
			items: []interface{}{
				item(1, 1, "max", 0, int64(math.MaxInt64)),
				item(1, 2, "one more", 0, 1),
			},
			wantTotals: []int64{math.MaxInt64, 0},
			wantShares: []float64{1, 0},
		},
		{
			name: "large product that fits",
			items: []interface{}{
				item(int64(1)<<31, 1, "big", 0, int64(1)<<31),
				item(1, 2, "rest", 0, int64(1)<<62-1),
			},
			wantTotals: []int64{1 << 62, 1<<62 - 1},
			wantShares: []float64{0.5, 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Transform([]RawInvoice{rawInvoice(1, "2024-01-01", tt.items...)}, NewExpiredSet()).Rows
			if len(rows) != len(tt.wantTotals) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.wantTotals))
			}
			for i, r := range rows {
				if r.TotalPrice != tt.wantTotals[i] {
					t.Errorf("row %d: total_price = %d, want %d", i, r.TotalPrice, tt.wantTotals[i])
				}
				if math.Abs(r.PercentageInInvoice-tt.wantShares[i]) > 1e-9 {
					t.Errorf("row %d: percentage_in_invoice = %v, want %v", i, r.PercentageInInvoice, tt.wantShares[i])
				}
			}
		})
	}
}

func TestTransformIdempotent(t *testing.T) {
	invoices := []RawInvoice{
		rawInvoice(2, "2024-01-02", item(1, 5, "b", 0, 2), item(2, 3, "a", 1, 3)),
		rawInvoice(1, "01/02/2024", item(1, 1, "c", 2, "x")),
		{KeyID: 3},
	}
	expired := NewExpiredSet(2)

	first := Transform(invoices, expired)
	second := Transform(invoices, expired)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	nested := map[string]interface{}{KeyID: 1, KeyName: "a", KeyType: 0, KeyUnitPrice: 2}
	entry := map[string]interface{}{KeyQuantity: 1, KeyItem: nested}
	raw := RawInvoice{KeyID: 1, KeyCreatedOn: "2024-01-01", KeyItems: []interface{}{entry}}

	Transform([]RawInvoice{raw}, NewExpiredSet())

	if len(raw) != 3 || len(entry) != 2 || len(nested) != 4 {
		t.Errorf("input was modified: %v", raw)
	}
}

func TestTransformEmpty(t *testing.T) {
	result := Transform(nil, NewExpiredSet())
	if result.Rows == nil || len(result.Rows) != 0 {
		t.Errorf("Rows = %#v, want empty non-nil slice", result.Rows)
	}
}

func TestTransformTypedItemSlice(t *testing.T) {
	raw := RawInvoice{
		KeyID:        1,
		KeyCreatedOn: date(2024, time.January, 1),
		KeyItems:     []map[string]interface{}{item(1, 1, "a", 3, 2)},
	}

	rows := Transform([]RawInvoice{raw}, NewExpiredSet()).Rows

	if len(rows) != 1 || rows[0].Type != models.ItemTypeOther || rows[0].TotalPrice != 2 {
		t.Errorf("rows = %+v", rows)
	}
}
