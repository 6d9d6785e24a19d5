package products

import (
	"context"

	"webharvest/lib/csvutil"
)

// CSVSink appends scraped products to a CSV file, one row per product,
// columns ordered like the scraper's field list.
type CSVSink struct {
	writer csvutil.Writer
	fields []string
}

func NewCSVSink(path string, fields []string) CSVSink {
	return CSVSink{
		writer: csvutil.NewWriter(path, fields),
		fields: fields,
	}
}

func (s CSVSink) WritePage(ctx context.Context, page int, items []Product) error {
	rows := make([][]string, len(items))
	for i, product := range items {
		row := make([]string, len(s.fields))
		for j, name := range s.fields {
			row[j] = product.Fields[name]
		}
		rows[i] = row
	}
	return s.writer.Append(rows)
}
