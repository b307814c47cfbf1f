package export

import (
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"invoicetools/pkg/models"
)

// parquetRow is the Parquet schema of a line item. created_on is stored in
// microseconds; nanoseconds below that are dropped.
type parquetRow struct {
	InvoiceID           int64   `parquet:"name=invoice_id, type=INT64"`
	CreatedOn           int64   `parquet:"name=created_on, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	InvoiceItemID       int64   `parquet:"name=invoiceitem_id, type=INT64"`
	InvoiceItemName     string  `parquet:"name=invoiceitem_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Type                string  `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8"`
	UnitPrice           int64   `parquet:"name=unit_price, type=INT64"`
	TotalPrice          int64   `parquet:"name=total_price, type=INT64"`
	PercentageInInvoice float64 `parquet:"name=percentage_in_invoice, type=DOUBLE"`
	IsExpired           bool    `parquet:"name=is_expired, type=BOOLEAN"`
}

func toParquetRow(row models.LineItem) *parquetRow {
	return &parquetRow{
		InvoiceID:           row.InvoiceID,
		CreatedOn:           row.CreatedOn.UnixMicro(),
		InvoiceItemID:       row.InvoiceItemID,
		InvoiceItemName:     row.InvoiceItemName,
		Type:                row.Type.String(),
		UnitPrice:           row.UnitPrice,
		TotalPrice:          row.TotalPrice,
		PercentageInInvoice: row.PercentageInInvoice,
		IsExpired:           row.IsExpired,
	}
}

func writeParquet(path string, rows []models.LineItem) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(toParquetRow(row)); err != nil {
			pw.WriteStop()
			file.Close()
			return fmt.Errorf("parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	return nil
}
