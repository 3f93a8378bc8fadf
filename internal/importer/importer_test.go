package importer

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cotisations/internal/service"
)

func TestReadRows(t *testing.T) {
	input := "nom,prenom,nombre_terrains,2025-08,2025-09,telephone\n" +
		"Dupont,Jean,3,3000,,06 123 45 67\n" +
		" Martin , Marie ,,1000,NaN,\n" +
		",Anonyme,1.0,NA,500,\n"

	rows, err := ReadRows(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	three, one := 3, 1
	want := []service.ImportRow{
		{Line: 2, Surname: "Dupont", GivenName: "Jean", ParcelCount: &three, Cells: map[string]string{"2025-08": "3000"}},
		{Line: 3, Surname: "Martin", GivenName: "Marie", Cells: map[string]string{"2025-08": "1000"}},
		{Line: 4, Surname: "", GivenName: "Anonyme", ParcelCount: &one, Cells: map[string]string{"2025-09": "500"}},
	}
	for i := range want {
		if !reflect.DeepEqual(rows[i], want[i]) {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestReadRowsOptions(t *testing.T) {
	// "Léa" and "Hélène" in Windows-1252, ';' separated.
	input := []byte("nom;Pr\xe9nom;2025-10\nL\xe9a;H\xe9l\xe8ne;1000\n")

	rows, err := ReadRows(bytes.NewReader(input), Options{Delimiter: ';', Windows1252: true})
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Surname != "Léa" || rows[0].GivenName != "Hélène" {
		t.Errorf("names = %q %q, want decoded accents", rows[0].Surname, rows[0].GivenName)
	}
	if rows[0].Cells["2025-10"] != "1000" {
		t.Errorf("cells = %v", rows[0].Cells)
	}
}

func TestReadRowsMissingColumn(t *testing.T) {
	_, err := ReadRows(strings.NewReader("nom,2025-08\nDupont,1000\n"), Options{})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}
}

func TestWritePivot(t *testing.T) {
	pivot := &service.Pivot{
		Periods: []string{"2025-08", "2025-09"},
		Rows: []service.PivotRow{
			{
				Surname: "Dupont", GivenName: "Jean", ParcelCount: 3,
				Cells: map[string]decimal.Decimal{
					"2025-08": decimal.NewFromInt(3000),
					"2025-09": decimal.NewFromInt(1000),
				},
				Total: decimal.NewFromInt(4000),
			},
			{
				Surname: "Martin", GivenName: "Marie", ParcelCount: 1,
				Cells:   map[string]decimal.Decimal{"2025-08": decimal.NewFromInt(1000)},
				Total:   decimal.NewFromInt(1000),
			},
		},
	}

	var buf bytes.Buffer
	if err := WritePivot(&buf, pivot); err != nil {
		t.Fatalf("WritePivot failed: %v", err)
	}
	want := "nom,prenom,nombre_terrains,2025-08,2025-09,TOTAL\n" +
		"Dupont,Jean,3,3000,1000,4000\n" +
		"Martin,Marie,1,1000,,1000\n"
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}

	// The export reads back as an import file.
	rows, err := ReadRows(&buf, Options{})
	if err != nil {
		t.Fatalf("ReadRows of export failed: %v", err)
	}
	if len(rows) != 2 || rows[0].Cells["2025-09"] != "1000" || *rows[1].ParcelCount != 1 {
		t.Errorf("re-imported rows = %+v", rows)
	}
}

func TestWritePivotEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePivot(&buf, &service.Pivot{}); err != nil {
		t.Fatalf("WritePivot failed: %v", err)
	}
	if buf.String() != "nom,prenom,nombre_terrains,TOTAL\n" {
		t.Errorf("output = %q", buf.String())
	}
}
