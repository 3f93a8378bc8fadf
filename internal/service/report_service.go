package service

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cotisations/internal/calculator"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

// ReportService computes dashboard figures, the export pivot and detailed listings.
type ReportService struct {
	store    storage.Store
	settings Settings
}

// NewReportService creates a new ReportService with the given storage backend.
func NewReportService(store storage.Store, settings Settings) *ReportService {
	return &ReportService{store: store, settings: settings.withDefaults()}
}

// Dashboard holds the headline figures. Due figures are restricted to Year when set.
type Dashboard struct {
	Year           *int            `json:"year,omitempty"`
	Participants   int             `json:"participants"`
	TotalParcels   int             `json:"total_parcels"`
	ExpectedTotal  decimal.Decimal `json:"expected_total"`
	Collected      decimal.Decimal `json:"collected"`
	PaidCount      int             `json:"paid_count"`
	UnpaidCount    int             `json:"unpaid_count"`
	UnpaidAmount   decimal.Decimal `json:"unpaid_amount"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
	Years          []int           `json:"years"`
}

// ExportOptions selects the dues that go into the pivot.
type ExportOptions struct {
	Year     *int
	PaidOnly bool
}

// PivotRow is one participant's line in the export.
type PivotRow struct {
	Surname     string
	GivenName   string
	ParcelCount int

	// Cells maps a period key to the sum of the participant's dues for it.
	Cells map[string]decimal.Decimal
	Total decimal.Decimal
}

// Pivot has one row per participant and one column per period.
type Pivot struct {
	// Periods are the column keys, oldest first.
	Periods []string
	Rows    []PivotRow
}

// Header returns the column names, which match the import format.
func (p *Pivot) Header() []string {
	header := []string{"nom", "prenom", "nombre_terrains"}
	header = append(header, p.Periods...)
	return append(header, "TOTAL")
}

// Records renders the pivot as CSV records, header first. Empty cells mean
// the participant has no due for that period.
func (p *Pivot) Records() [][]string {
	records := [][]string{p.Header()}
	for _, row := range p.Rows {
		rec := []string{row.Surname, row.GivenName, strconv.Itoa(row.ParcelCount)}
		for _, key := range p.Periods {
			cell, ok := row.Cells[key]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, cell.Round(0).String())
		}
		rec = append(rec, row.Total.Round(0).String())
		records = append(records, rec)
	}
	return records
}

// DetailedDue is a due with its participant's name.
type DetailedDue struct {
	Due       *models.DueRecord
	Surname   string
	GivenName string
}

// Dashboard computes the headline figures, optionally for a single year.
func (s *ReportService) Dashboard(ctx context.Context, year *int) (*Dashboard, error) {
	slog.Info("Dashboard request received", "year", year)

	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		slog.Error("Dashboard failed", "error", err)
		return nil, err
	}
	filter := storage.DueFilter{}
	if year != nil {
		filter.Year = *year
	}
	dues, err := s.store.ListDues(ctx, filter)
	if err != nil {
		slog.Error("Dashboard failed", "error", err)
		return nil, err
	}
	years, err := s.store.DueYears(ctx)
	if err != nil {
		slog.Error("Dashboard failed", "error", err)
		return nil, err
	}

	parcels := 0
	for _, p := range participants {
		parcels += p.ParcelCount
	}
	c := calculator.SummarizeDues(dueAmounts(dues))
	expected := calculator.ExpectedTotal(parcels, s.settings.ParcelPrice)

	return &Dashboard{
		Year:           year,
		Participants:   len(participants),
		TotalParcels:   parcels,
		ExpectedTotal:  expected,
		Collected:      c.Collected,
		PaidCount:      c.PaidCount,
		UnpaidCount:    c.UnpaidCount,
		UnpaidAmount:   c.Outstanding,
		CollectionRate: calculator.CollectionRate(c.Collected, expected),
		Years:          years,
	}, nil
}

// Export builds the participant × period pivot. Per-parcel and whole-account
// dues of the same month are added together.
func (s *ReportService) Export(ctx context.Context, opts ExportOptions) (*Pivot, error) {
	slog.Info("Export request received", "year", opts.Year, "paid_only", opts.PaidOnly)

	filter := storage.DueFilter{}
	if opts.Year != nil {
		filter.Year = *opts.Year
	}
	if opts.PaidOnly {
		paid := true
		filter.Paid = &paid
	}

	dues, err := s.store.ListDues(ctx, filter)
	if err != nil {
		slog.Error("Export failed", "error", err)
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		slog.Error("Export failed", "error", err)
		return nil, err
	}

	byID := make(map[int64]*PivotRow)
	periods := make(map[string]models.Period)
	for _, d := range dues {
		row, ok := byID[d.ParticipantID]
		if !ok {
			row = &PivotRow{Cells: make(map[string]decimal.Decimal), Total: decimal.Zero}
			byID[d.ParticipantID] = row
		}
		key := d.Period.Key()
		periods[key] = d.Period
		amount := decimal.NewFromFloat(d.Amount)
		row.Cells[key] = row.Cells[key].Add(amount)
		row.Total = row.Total.Add(amount)
	}

	pivot := &Pivot{}
	for key := range periods {
		pivot.Periods = append(pivot.Periods, key)
	}
	sort.Strings(pivot.Periods)

	// Participants are already ordered by name.
	for _, p := range participants {
		row, ok := byID[p.ID]
		if !ok {
			continue
		}
		row.Surname = p.Surname
		row.GivenName = p.GivenName
		row.ParcelCount = p.ParcelCount
		pivot.Rows = append(pivot.Rows, *row)
	}

	slog.Info("Export successful", "rows", len(pivot.Rows), "periods", len(pivot.Periods))
	return pivot, nil
}

// ListDetailed returns the dues matching filter with participant names,
// ordered by period, surname and parcel.
func (s *ReportService) ListDetailed(ctx context.Context, filter storage.DueFilter) ([]DetailedDue, error) {
	dues, err := s.store.ListDues(ctx, filter)
	if err != nil {
		slog.Error("ListDetailed failed", "error", err)
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		slog.Error("ListDetailed failed", "error", err)
		return nil, err
	}
	byID := make(map[int64]*models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	rows := make([]DetailedDue, 0, len(dues))
	for _, d := range dues {
		row := DetailedDue{Due: d}
		if p, ok := byID[d.ParticipantID]; ok {
			row.Surname = p.Surname
			row.GivenName = p.GivenName
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Due.Period != b.Due.Period {
			return a.Due.Period.Before(b.Due.Period)
		}
		if a.Surname != b.Surname {
			return a.Surname < b.Surname
		}
		if a.GivenName != b.GivenName {
			return a.GivenName < b.GivenName
		}
		return models.SlotNumber(a.Due.Slot) < models.SlotNumber(b.Due.Slot)
	})
	return rows, nil
}
