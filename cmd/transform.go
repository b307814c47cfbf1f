package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"invoicetools/internal/export"
	"invoicetools/internal/invoice"
	"invoicetools/internal/logger"
	"invoicetools/internal/sheets"
	"invoicetools/internal/store"
	"invoicetools/pkg/services"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Flatten an invoice store into a sorted line item table",
	Long: `Load an invoice store and a list of expired invoice ids, flatten every
valid invoice into line item rows and print a sample of the result.

Invoice stores may be JSON (.json), JSON Lines (.jsonl, .ndjson) or YAML
(.yaml, .yml). The expired list is a text file of comma-separated ids.

The table can also be written to a file (.csv, .json, .parquet, .xlsx)
and appended to a Google Sheets worksheet.

Environment variables (overridden by flags):
  INVOICES_FILE          - Invoice store path
  EXPIRED_INVOICES_FILE  - Expired invoice id list path
  OUTPUT_FILE            - Output table path
  SAMPLE_ROWS            - Number of rows to print (default: 5)
  GOOGLE_SHEET_URL       - Spreadsheet to append rows to
  GOOGLE_SHEET_WORKSHEET - Worksheet name (default: LineItems)`,
	Example: `  # Print the first rows of the table
  invoicetools transform --invoices invoices.json --expired expired.txt

  # Write the whole table to Parquet and print 10 rows
  invoicetools transform --invoices invoices.yaml --expired expired.txt -o items.parquet --head 10

  # Append the table to a Google Sheet
  invoicetools transform --invoices invoices.json --expired expired.txt \
    --sheet-url https://docs.google.com/spreadsheets/d/<id>/edit`,
	Args: cobra.NoArgs,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringP("invoices", "i", "", "Invoice store path (default: $INVOICES_FILE)")
	transformCmd.Flags().StringP("expired", "e", "", "Expired invoice id list path (default: $EXPIRED_INVOICES_FILE)")
	transformCmd.Flags().StringP("output", "o", "", "Write the table to this file (.csv, .json, .parquet, .xlsx)")
	transformCmd.Flags().Int("head", 5, "Number of rows to print (-1 for all)")
	transformCmd.Flags().Bool("show-skipped", false, "Print every skipped invoice and line")
	transformCmd.Flags().String("sheet-url", "", "Append the table to this Google Sheet")
	transformCmd.Flags().String("worksheet", "", "Worksheet to append to (default: $GOOGLE_SHEET_WORKSHEET)")
	transformCmd.Flags().Int("timeout", 120, "Export timeout in seconds")
}

// transformOptions are the effective settings of one transform run.
type transformOptions struct {
	InvoicesFile string
	ExpiredFile  string
	OutputFile   string
	SampleRows   int
	ShowSkipped  bool
	SheetURL     string
	Worksheet    string
	Timeout      time.Duration
}

func transformOptionsFromFlags(cmd *cobra.Command) transformOptions {
	opts := transformOptions{
		InvoicesFile: cfg.InvoicesFile,
		ExpiredFile:  cfg.ExpiredInvoicesFile,
		OutputFile:   cfg.OutputFile,
		SampleRows:   cfg.SampleRows,
		SheetURL:     cfg.GoogleSheetURL,
		Worksheet:    cfg.GoogleSheetWorksheet,
	}

	flags := cmd.Flags()
	if flags.Changed("invoices") {
		opts.InvoicesFile, _ = flags.GetString("invoices")
	}
	if flags.Changed("expired") {
		opts.ExpiredFile, _ = flags.GetString("expired")
	}
	if flags.Changed("output") {
		opts.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("head") {
		opts.SampleRows, _ = flags.GetInt("head")
	}
	if flags.Changed("sheet-url") {
		opts.SheetURL, _ = flags.GetString("sheet-url")
	}
	if flags.Changed("worksheet") {
		opts.Worksheet, _ = flags.GetString("worksheet")
	}
	opts.ShowSkipped, _ = flags.GetBool("show-skipped")
	timeoutSecs, _ := flags.GetInt("timeout")
	opts.Timeout = time.Duration(timeoutSecs) * time.Second

	return opts
}

func (o transformOptions) validate() error {
	if o.InvoicesFile == "" {
		return fmt.Errorf("invoice store path is required (--invoices or INVOICES_FILE)")
	}
	if o.ExpiredFile == "" {
		return fmt.Errorf("expired invoice list path is required (--expired or EXPIRED_INVOICES_FILE)")
	}
	if o.SheetURL != "" && o.Worksheet == "" {
		return fmt.Errorf("worksheet is required when a sheet URL is set")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func runTransform(cmd *cobra.Command, args []string) error {
	opts := transformOptionsFromFlags(cmd)
	if err := opts.validate(); err != nil {
		return err
	}

	runID := logger.NewRunID()
	log := logger.WithRunID(logger.WithComponent("transform"), runID)

	log.Info().
		Str("invoices", opts.InvoicesFile).
		Str("expired", opts.ExpiredFile).
		Str("output", opts.OutputFile).
		Msg("Starting invoice transform")

	ctx, cancel := createTransformContext(opts.Timeout, log)
	defer cancel()

	result, err := extract(opts, log)
	if err != nil {
		return err
	}

	exporters, err := createExporters(ctx, opts)
	if err != nil {
		return err
	}
	for _, e := range exporters {
		if err := e.Export(ctx, result.Rows); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if err := export.PrintSample(out, result.Rows, opts.SampleRows); err != nil {
		return fmt.Errorf("failed to print sample: %w", err)
	}
	printSkipSummary(out, result, opts.ShowSkipped)

	log.Info().
		Int("rows", len(result.Rows)).
		Int("skipped", len(result.Skipped)).
		Msg("Invoice transform completed")

	return nil
}

// extract loads both inputs and transforms the invoices.
func extract(opts transformOptions, log zerolog.Logger) (*invoice.Result, error) {
	expired, err := invoice.LoadExpired(opts.ExpiredFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load expired invoice ids: %w", err)
	}
	log.Debug().Int("expired_ids", expired.Len()).Msg("Expired invoice ids loaded")

	src, err := store.Open(opts.InvoicesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoice store: %w", err)
	}

	result, err := invoice.NewExtractor(src, expired).WithLogger(log).ExtractAndTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to extract invoices: %w", err)
	}
	return result, nil
}

func createExporters(ctx context.Context, opts transformOptions) ([]services.Exporter, error) {
	var exporters []services.Exporter

	if opts.OutputFile != "" {
		fe, err := export.NewFileExporter(opts.OutputFile)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, fe)
	}

	if opts.SheetURL != "" {
		svc, err := sheets.NewSheetsService(ctx, opts.SheetURL, opts.Worksheet)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}
		exporters = append(exporters, svc)
	}

	return exporters, nil
}

func printSkipSummary(w io.Writer, result *invoice.Result, verbose bool) {
	if len(result.Skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSkipped %d of %d invoices and %d lines\n",
		result.SkippedInvoices(), result.InvoicesRead, result.SkippedLines())
	if !verbose {
		return
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

func createTransformContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling export")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
