package invoice

// Inspection summarizes the shape of a loaded invoice batch by looking at
// its first invoice and that invoice's first line.
type Inspection struct {
	Invoices int

	// InvoiceKeys are the sorted keys of the first invoice.
	InvoiceKeys []string

	// HasItems is false when the first invoice has no readable, non-empty
	// items sequence.
	HasItems bool

	// ItemKeys are the sorted keys of the first line of the first invoice.
	ItemKeys []string

	// SampleItem is the first line of the first invoice as loaded.
	SampleItem interface{}
}

// Inspect reports the keys of the first invoice and of its first item.
func Inspect(invoices []RawInvoice) Inspection {
	ins := Inspection{Invoices: len(invoices)}
	if len(invoices) == 0 {
		return ins
	}

	first := invoices[0]
	ins.InvoiceKeys = sortedKeys(first)

	entries, ok := asSequence(first[KeyItems])
	if !ok || len(entries) == 0 {
		return ins
	}
	ins.HasItems = true
	ins.SampleItem = entries[0]
	if fields, ok := asMap(entries[0]); ok {
		ins.ItemKeys = sortedKeys(fields)
	}
	return ins
}
