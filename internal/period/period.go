// Package period handles the half-month period labels used throughout the
// merchandising pipeline. A label encodes a year, month and half as
// "YYYYMMA" (first half) or "YYYYMMB" (second half), e.g. "202508A".
// Output filenames and database rows are keyed by these labels.
package period

import (
	"fmt"
	"strconv"
)

// Half identifies which half of the month a period covers.
type Half byte

const (
	// HalfA covers days 1-15.
	HalfA Half = 'A'
	// HalfB covers day 16 to the end of the month.
	HalfB Half = 'B'
)

// Period is a parsed half-month period label.
type Period struct {
	Year  int
	Month int
	Half  Half
}

// Parse parses a label like "202508A" into a Period.
func Parse(label string) (Period, error) {
	if len(label) != 7 {
		return Period{}, fmt.Errorf("invalid period label %q: want 7 characters", label)
	}
	year, err := strconv.Atoi(label[:4])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year in %q: %w", label, err)
	}
	month, err := strconv.Atoi(label[4:6])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period month in %q: %w", label, err)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid period month %d in %q", month, label)
	}
	half := Half(label[6])
	if half != HalfA && half != HalfB {
		return Period{}, fmt.Errorf("invalid period half %q in %q: want A or B", string(label[6]), label)
	}
	return Period{Year: year, Month: month, Half: half}, nil
}

// MustParse parses a label and panics on error. Intended for test setup.
func MustParse(label string) Period {
	p, err := Parse(label)
	if err != nil {
		panic(err)
	}
	return p
}

// String formats the period back into its canonical label.
func (p Period) String() string {
	return fmt.Sprintf("%04d%02d%c", p.Year, p.Month, p.Half)
}

// Next returns the period immediately after p. B of December rolls over
// to A of January the following year.
func (p Period) Next() Period {
	if p.Half == HalfA {
		p.Half = HalfB
		return p
	}
	p.Half = HalfA
	p.Month++
	if p.Month > 12 {
		p.Month = 1
		p.Year++
	}
	return p
}

// Prev returns the period immediately before p.
func (p Period) Prev() Period {
	if p.Half == HalfB {
		p.Half = HalfA
		return p
	}
	p.Half = HalfB
	p.Month--
	if p.Month < 1 {
		p.Month = 12
		p.Year--
	}
	return p
}

// Compare returns -1, 0 or 1 as p is before, equal to, or after other.
func (p Period) Compare(other Period) int {
	pa, pb := p.ordinal(), other.ordinal()
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	default:
		return 0
	}
}

func (p Period) ordinal() int {
	o := (p.Year*12 + (p.Month - 1)) * 2
	if p.Half == HalfB {
		o++
	}
	return o
}

// Range returns the inclusive sequence of periods from start to end.
// Returns nil if end is before start.
func Range(start, end Period) []Period {
	if end.Compare(start) < 0 {
		return nil
	}
	var out []Period
	for p := start; p.Compare(end) <= 0; p = p.Next() {
		out = append(out, p)
	}
	return out
}
