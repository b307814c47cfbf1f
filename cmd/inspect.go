package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"invoicetools/internal/invoice"
	"invoicetools/internal/logger"
	"invoicetools/internal/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [invoice-store]",
	Short: "Show the shape of the first invoice in a store",
	Long: `Load an invoice store and print the keys of its first invoice, the keys
of that invoice's first line and the line itself. Useful to check a store
before running transform.`,
	Example: `  invoicetools inspect invoices.json
  INVOICES_FILE=invoices.yaml invoicetools inspect`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("inspect")

	path := cfg.InvoicesFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("invoice store path is required (argument or INVOICES_FILE)")
	}

	src, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open invoice store: %w", err)
	}
	invoices, err := src.Load()
	if err != nil {
		return fmt.Errorf("failed to load invoice store: %w", err)
	}

	log.Debug().Str("path", path).Int("invoices", len(invoices)).Msg("Inspecting invoice store")

	return printInspection(cmd.OutOrStdout(), invoice.Inspect(invoices))
}

func printInspection(w io.Writer, ins invoice.Inspection) error {
	if ins.Invoices == 0 {
		_, err := fmt.Fprintln(w, "No invoices found.")
		return err
	}

	fmt.Fprintf(w, "Invoices: %d\n", ins.Invoices)
	fmt.Fprintf(w, "Keys in first invoice: %s\n", strings.Join(ins.InvoiceKeys, ", "))
	if !ins.HasItems {
		_, err := fmt.Fprintln(w, "No items found in the first invoice.")
		return err
	}

	if ins.ItemKeys != nil {
		fmt.Fprintf(w, "Keys in first item: %s\n", strings.Join(ins.ItemKeys, ", "))
	}
	sample, err := json.MarshalIndent(ins.SampleItem, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render sample item: %w", err)
	}
	_, err = fmt.Fprintf(w, "First item:\n%s\n", sample)
	return err
}
