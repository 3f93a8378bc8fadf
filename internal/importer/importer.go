// Package importer converts spreadsheet CSV files to import rows and writes
// the export pivot back out in the same layout.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"

	"github.com/mmynk/cotisations/internal/service"
)

// Column names of the import layout. Any other column whose name contains a
// dash is read as a "YYYY-MM" period column.
const (
	ColSurname   = "nom"
	ColGivenName = "prenom"
	ColParcels   = "nombre_terrains"
)

// ErrMissingColumn is returned when the name columns are absent.
var ErrMissingColumn = errors.New("missing required column")

// Options controls how a CSV file is decoded.
type Options struct {
	// Delimiter defaults to ','. Spreadsheets saved with a French locale use ';'.
	Delimiter rune

	// Windows1252 decodes files saved by Excel in the legacy Windows encoding.
	Windows1252 bool
}

// ReadRows parses an import file. Blank, "NA" and "NaN" cells are dropped;
// validating names and amounts is left to the import service.
func ReadRows(r io.Reader, opts Options) ([]service.ImportRow, error) {
	if opts.Windows1252 {
		r = charmap.Windows1252.NewDecoder().Reader(r)
	}
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter(delimiter),
		dataframe.WithLazyQuotes(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan", "<nil>"}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", df.Err)
	}

	var surnameCol, givenNameCol, parcelsCol string
	var periodCols []string
	for _, name := range df.Names() {
		switch normalizeHeader(name) {
		case ColSurname:
			surnameCol = name
		case ColGivenName, "prénom":
			givenNameCol = name
		case ColParcels:
			parcelsCol = name
		default:
			if strings.Contains(name, "-") {
				periodCols = append(periodCols, name)
			}
		}
	}
	if surnameCol == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColSurname)
	}
	if givenNameCol == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColGivenName)
	}

	surnames := df.Col(surnameCol)
	givenNames := df.Col(givenNameCol)

	rows := make([]service.ImportRow, df.Nrow())
	for i := range rows {
		row := service.ImportRow{
			// Line 1 is the header.
			Line:      i + 2,
			Surname:   cell(surnames, i),
			GivenName: cell(givenNames, i),
			Cells:     make(map[string]string, len(periodCols)),
		}
		if parcelsCol != "" {
			row.ParcelCount = parseCount(cell(df.Col(parcelsCol), i))
		}
		for _, col := range periodCols {
			if v := cell(df.Col(col), i); v != "" {
				row.Cells[strings.TrimSpace(col)] = v
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// cell returns the trimmed text of row i, or "" when it is missing.
func cell(s series.Series, i int) string {
	e := s.Elem(i)
	if e.IsNA() {
		return ""
	}
	return strings.TrimSpace(e.String())
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// parseCount reads a parcel count, accepting "3" as well as "3.0" from
// spreadsheets that store every number as a float.
func parseCount(raw string) *int {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil
	}
	n := int(f)
	return &n
}

// WritePivot writes the export pivot as CSV in the import layout, so an
// export can be edited and imported back.
func WritePivot(w io.Writer, pivot *service.Pivot) error {
	records := pivot.Records()
	if len(records) < 2 {
		// Nothing matched: a dataframe cannot be empty, write the header alone.
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(records); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
