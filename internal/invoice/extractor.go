package invoice

import (
	"github.com/rs/zerolog"
	"invoicetools/internal/logger"
)

// Loader supplies the raw invoice records of one run.
type Loader interface {
	// Load returns every invoice record of the store. A failure here is
	// fatal to the run.
	Load() ([]RawInvoice, error)
}

// Extractor ties a Loader to a Transformer.
type Extractor struct {
	loader      Loader
	transformer *Transformer
	log         zerolog.Logger
}

// NewExtractor creates an Extractor reading from loader and flagging the
// invoices in expired.
func NewExtractor(loader Loader, expired ExpiredSet) *Extractor {
	return &Extractor{
		loader:      loader,
		transformer: NewTransformer(expired),
		log:         logger.WithComponent("extractor"),
	}
}

// WithLogger returns a copy of e whose diagnostics go to log.
func (e *Extractor) WithLogger(log zerolog.Logger) *Extractor {
	c := *e
	c.log = log
	c.transformer = e.transformer.WithLogger(log)
	return &c
}

// Load returns the raw invoices from the loader.
func (e *Extractor) Load() ([]RawInvoice, error) {
	const op = "Load"

	invoices, err := e.loader.Load()
	if err != nil {
		return nil, WrapExtractionError(op, err, "")
	}

	e.log.Info().Int("invoices", len(invoices)).Msg("Invoices loaded")
	return invoices, nil
}

// ExtractAndTransform loads the raw invoices and transforms them.
func (e *Extractor) ExtractAndTransform() (*Result, error) {
	invoices, err := e.Load()
	if err != nil {
		return nil, err
	}

	result := e.transformer.Transform(invoices)

	e.log.Info().
		Int("invoices_read", result.InvoicesRead).
		Int("invoices_accepted", result.InvoicesAccepted).
		Int("invoices_skipped", result.SkippedInvoices()).
		Int("lines_skipped", result.SkippedLines()).
		Int("rows", len(result.Rows)).
		Msg("Invoices transformed")

	return result, nil
}
