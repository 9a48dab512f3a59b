package table

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is wrapped when a CSV source has no header row.
	ErrEmpty = errors.New("no data")

	// ErrMissingColumn is wrapped when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
)

// DataFormatError reports a source whose contents cannot be used: an empty
// file, a missing column or a value of the wrong type.
type DataFormatError struct {
	Source string
	Column string
	Err    error
}

func (e *DataFormatError) Error() string {
	switch {
	case e.Source != "" && e.Column != "":
		return fmt.Sprintf("%s: column %q: %v", e.Source, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	case e.Source != "":
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return e.Err.Error()
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

func missing(source, column string) error {
	return &DataFormatError{Source: source, Column: column, Err: ErrMissingColumn}
}
