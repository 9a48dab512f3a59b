package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Cell is one table value. A missing cell is distinct from an empty or zero
// value and is never coerced to a number.
type Cell struct {
	raw   string
	valid bool
}

// Value returns a present cell holding s.
func Value(s string) Cell {
	return Cell{raw: s, valid: true}
}

// Number returns a present cell holding f in its shortest decimal form.
func Number(f float64) Cell {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// Missing returns a missing cell.
func Missing() Cell {
	return Cell{}
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool {
	return !c.valid
}

// String returns the raw value, or "" for a missing cell.
func (c Cell) String() string {
	return c.raw
}

// Float parses the cell as a number.
func (c Cell) Float() (float64, error) {
	if !c.valid {
		return 0, fmt.Errorf("missing value")
	}
	return cast.ToFloat64E(strings.TrimSpace(c.raw))
}

// Int parses the cell as an integral number. "1024.0" is accepted.
func (c Cell) Int() (int, error) {
	f, err := c.Float()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", c.raw)
	}
	return int(f), nil
}

// Key returns a canonical form used for equality in joins and filters:
// numbers compare by value ("10" equals "10.0"), everything else by text.
func (c Cell) Key() string {
	if !c.valid {
		return "\x00"
	}
	if f, err := c.Float(); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.TrimSpace(c.raw)
}
