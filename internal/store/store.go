// Package store decodes invoice store files into raw invoice records.
//
// Supported formats are chosen by file extension:
//   - .json: a single JSON array of invoice objects
//   - .jsonl, .ndjson: one JSON invoice object per line
//   - .yaml, .yml: a YAML sequence of invoice mappings
//
// JSON numbers are kept as json.Number so large ids survive decoding; the
// invoice package coerces them. Records are otherwise passed through as
// generic maps and slices.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"invoicetools/internal/invoice"
	"invoicetools/internal/logger"
)

// Format identifies an invoice store encoding.
type Format string

const (
	FormatJSON      Format = "json"
	FormatJSONLines Format = "jsonl"
	FormatYAML      Format = "yaml"
)

// FormatFor returns the store format implied by path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONLines, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", invoice.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FileStore loads invoices from a file on disk. It implements invoice.Loader.
type FileStore struct {
	path   string
	format Format
	log    zerolog.Logger
}

// Open prepares a FileStore for path. The file is not read until Load.
func Open(path string) (*FileStore, error) {
	const op = "Open"

	format, err := FormatFor(path)
	if err != nil {
		return nil, &invoice.ExtractionError{Op: op, Err: err, Source: path}
	}

	return &FileStore{
		path:   path,
		format: format,
		log:    logger.WithComponent("store"),
	}, nil
}

// Path returns the file the store reads from.
func (s *FileStore) Path() string {
	return s.path
}

// Format returns the decoder the store uses.
func (s *FileStore) Format() Format {
	return s.format
}

// Load reads and decodes the whole store.
func (s *FileStore) Load() ([]invoice.RawInvoice, error) {
	const op = "Load"

	s.log.Debug().
		Str("path", s.path).
		Str("format", string(s.format)).
		Msg("Loading invoice store")

	f, err := os.Open(s.path)
	if err != nil {
		return nil, &invoice.ExtractionError{
			Op:     op,
			Err:    fmt.Errorf("%w: %w", invoice.ErrUnreadableStore, err),
			Source: s.path,
		}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.log.Warn().Err(closeErr).Str("path", s.path).Msg("Failed to close invoice store")
		}
	}()

	invoices, err := Decode(f, s.format)
	if err != nil {
		return nil, &invoice.ExtractionError{Op: op, Err: err, Source: s.path}
	}

	s.log.Debug().
		Str("path", s.path).
		Int("invoices", len(invoices)).
		Msg("Invoice store loaded")

	return invoices, nil
}

// Decode reads every invoice record of r in the given format.
func Decode(r io.Reader, format Format) ([]invoice.RawInvoice, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatJSONLines:
		return decodeJSONLines(r)
	case FormatYAML:
		return decodeYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", invoice.ErrUnsupportedFormat, format)
	}
}

func decodeJSON(r io.Reader) ([]invoice.RawInvoice, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, corrupt(err)
	}
	return toInvoices(doc)
}

func decodeJSONLines(r io.Reader) ([]invoice.RawInvoice, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	invoices := []invoice.RawInvoice{}
	for line := 1; ; line++ {
		var doc interface{}
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return invoices, nil
		}
		if err != nil {
			return nil, corrupt(fmt.Errorf("record %d: %w", line, err))
		}
		rec, ok := doc.(map[string]interface{})
		if !ok {
			return nil, corrupt(fmt.Errorf("record %d is %T, not an object", line, doc))
		}
		invoices = append(invoices, invoice.RawInvoice(rec))
	}
}

func decodeYAML(r io.Reader) ([]invoice.RawInvoice, error) {
	var doc interface{}
	err := yaml.NewDecoder(r).Decode(&doc)
	if errors.Is(err, io.EOF) {
		return []invoice.RawInvoice{}, nil
	}
	if err != nil {
		return nil, corrupt(err)
	}
	return toInvoices(normalizeYAML(doc))
}

func toInvoices(doc interface{}) ([]invoice.RawInvoice, error) {
	seq, ok := doc.([]interface{})
	if !ok {
		return nil, corrupt(fmt.Errorf("top level is %T, not a sequence", doc))
	}

	invoices := make([]invoice.RawInvoice, 0, len(seq))
	for i, v := range seq {
		rec, ok := v.(map[string]interface{})
		if !ok {
			return nil, corrupt(fmt.Errorf("record %d is %T, not an object", i, v))
		}
		invoices = append(invoices, invoice.RawInvoice(rec))
	}
	return invoices, nil
}

// normalizeYAML rewrites mappings with non-string keys into string-keyed maps.
func normalizeYAML(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, val := range x {
			x[k] = normalizeYAML(val)
		}
		return x
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		for i, val := range x {
			x[i] = normalizeYAML(val)
		}
		return x
	default:
		return v
	}
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", invoice.ErrCorruptStore, err)
}
