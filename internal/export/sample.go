package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"invoicetools/pkg/models"
)

// PrintSample writes the first n rows to w as an aligned table with a
// header. A negative n prints every row.
func PrintSample(w io.Writer, rows []models.LineItem, n int) error {
	if n < 0 || n > len(rows) {
		n = len(rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(no line items)")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(models.Columns, "\t"))
	for _, row := range rows[:n] {
		fmt.Fprintln(tw, strings.Join(record(row), "\t"))
	}
	if n < len(rows) {
		fmt.Fprintf(tw, "... %d more rows\n", len(rows)-n)
	}
	return tw.Flush()
}
