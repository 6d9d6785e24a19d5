package articles

import (
	"context"

	"webharvest/lib/csvutil"
)

// CSVSink appends one row per article: the article code followed by
// the extracted fields in stable column order.
type CSVSink struct {
	writer csvutil.Writer
	fields []string
}

func NewCSVSink(path string, fields []string) CSVSink {
	header := append([]string{"code"}, fields...)
	return CSVSink{
		writer: csvutil.NewWriter(path, header),
		fields: fields,
	}
}

func (s CSVSink) WriteArticle(ctx context.Context, code string, fields map[string]string) error {
	row := make([]string, 0, len(s.fields)+1)
	row = append(row, code)
	for _, name := range s.fields {
		row = append(row, fields[name])
	}
	return s.writer.Append([][]string{row})
}
