package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds for a valid period year.
const (
	MinYear = 2025
	MaxYear = 2100
)

// MonthNames are the French month abbreviations used in messages and reports.
var MonthNames = [12]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Juin",
	"Juil", "Août", "Sep", "Oct", "Nov", "Déc",
}

// Period identifies the month a due is owed for.
type Period struct {
	Month int
	Year  int
}

// Validate checks that the month is in [1,12] and the year in [MinYear,MaxYear].
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d not in 1..12", ErrInvalidPeriod, p.Month)
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return fmt.Errorf("%w: year %d not in %d..%d", ErrInvalidPeriod, p.Year, MinYear, MaxYear)
	}
	return nil
}

// Key returns the "YYYY-MM" form used as a spreadsheet column header.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Label returns a human-readable form such as "Août 2025".
func (p Period) Label() string {
	if p.Month < 1 || p.Month > 12 {
		return p.Key()
	}
	return fmt.Sprintf("%s %d", MonthNames[p.Month-1], p.Year)
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// ParsePeriod parses a "YYYY-MM" key and validates it.
func ParsePeriod(key string) (Period, error) {
	yearStr, monthStr, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return Period{}, fmt.Errorf("%w: %q is not YYYY-MM", ErrInvalidPeriod, key)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Period{}, fmt.Errorf("%w: bad year in %q", ErrInvalidPeriod, key)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return Period{}, fmt.Errorf("%w: bad month in %q", ErrInvalidPeriod, key)
	}
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}
