package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV reads a comma separated file with a header row. Every column
// originates from source. Empty cells become missing cells.
func ReadCSV(path, source string) (*Table, error) {
	return ReadCSVSep(path, source, ',')
}

// ReadCSVSep is ReadCSV with a custom field separator.
func ReadCSVSep(path, source string, comma rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f, source, comma)
	if err != nil {
		var dfe *DataFormatError
		if errors.As(err, &dfe) && dfe.Source == "" {
			dfe.Source = path
		}
		return nil, err
	}
	return t, nil
}

// Decode parses CSV from r.
func Decode(r io.Reader, source string, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &DataFormatError{Err: ErrEmpty}
	}
	if err != nil {
		return nil, &DataFormatError{Err: fmt.Errorf("reading header: %w", err)}
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	t := New(source, names...)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DataFormatError{Err: fmt.Errorf("reading row %d: %w", t.Len()+1, err)}
		}
		if len(record) != len(names) {
			return nil, &DataFormatError{Err: fmt.Errorf("row %d has %d fields, header has %d", t.Len()+1, len(record), len(names))}
		}

		row := make([]Cell, len(record))
		for i, v := range record {
			if strings.TrimSpace(v) == "" {
				row[i] = Missing()
			} else {
				row[i] = Value(v)
			}
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

// Encode writes the table as CSV with a header of display names. Missing
// cells are written as empty fields.
func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	record := make([]string, len(t.columns))
	for _, r := range t.rows {
		for i, c := range r {
			record[i] = c.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the table to path in a single write.
func (t *Table) WriteCSV(path string) error {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return fmt.Errorf("encoding CSV: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing CSV file: %w", err)
	}
	return nil
}
