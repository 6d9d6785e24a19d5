// Package csvutil holds the CSV conventions shared by the scrapers:
// results append to an existing file, and the header row is only
// written when the file starts out empty.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"os"
)

type Writer struct {
	path   string
	header []string
}

func NewWriter(path string, header []string) Writer {
	return Writer{path: path, header: header}
}

func (w Writer) Append(rows [][]string) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	out := csv.NewWriter(f)
	if info.Size() == 0 {
		err = out.Write(w.header)
		if err != nil {
			return err
		}
	}
	err = out.WriteAll(rows)
	if err != nil {
		return err
	}
	out.Flush()
	return out.Error()
}

// ReadColumn returns the values of a named column, in row order.
func ReadColumn(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	in := csv.NewReader(f)
	records, err := in.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty csv file", path)
	}

	index := -1
	for i, name := range records[0] {
		if name == column {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("%s: no column named %q", path, column)
	}

	var values []string
	for _, record := range records[1:] {
		if index < len(record) {
			values = append(values, record[index])
		}
	}
	return values, nil
}
