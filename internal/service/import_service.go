package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/mmynk/cotisations/internal/models"
)

// ImportRow is one spreadsheet line: a participant and its monthly amounts.
type ImportRow struct {
	// Line is the 1-based spreadsheet line, header included, for error messages.
	Line      int
	Surname   string
	GivenName string

	// ParcelCount is used when the participant has to be created.
	ParcelCount *int

	// Cells maps a "YYYY-MM" column key to the raw cell text.
	Cells map[string]string
}

// ImportOptions controls how rows are applied.
type ImportOptions struct {
	// CreateMissing creates participants that do not exist yet.
	CreateMissing bool

	// MarkPaid records every imported due as paid today.
	MarkPaid bool
}

// ImportError describes a rejected row or cell. Import carries on after it.
type ImportError struct {
	Line        int    `json:"line"`
	Column      string `json:"column,omitempty"`
	Participant string `json:"participant,omitempty"`
	Message     string `json:"message"`
}

func (e ImportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ligne %d", e.Line)
	if e.Participant != "" {
		b.WriteString(": " + e.Participant)
	}
	if e.Column != "" {
		b.WriteString(" - " + e.Column)
	}
	b.WriteString(": " + e.Message)
	return b.String()
}

// ImportResult summarises an import.
type ImportResult struct {
	Imported            int           `json:"imported"`
	ParticipantsCreated int           `json:"participants_created"`
	Errors              []ImportError `json:"errors"`
}

// ImportService applies spreadsheet rows to the ledger.
type ImportService struct {
	participants *ParticipantService
	dues         *DueService
	settings     Settings
}

// NewImportService creates an ImportService that writes through the given services.
func NewImportService(participants *ParticipantService, dues *DueService, settings Settings) *ImportService {
	return &ImportService{
		participants: participants,
		dues:         dues,
		settings:     settings.withDefaults(),
	}
}

// isBlankCell reports whether a cell carries no amount.
func isBlankCell(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NAN", "NA", "N/A":
		return true
	}
	return false
}

// parseAmount accepts "1000", "1 000", "1000.5" and "1000,5".
func parseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.Replace(s, ",", ".", 1)
	return strconv.ParseFloat(s, 64)
}

// Import records the amounts of every row. Rejected rows and cells are
// collected in the result; only a cancelled context stops the import.
//
// Each amount goes through the allocation engine: participants with more than
// one parcel get it split per parcel, the others get a single whole-account due.
func (s *ImportService) Import(ctx context.Context, rows []ImportRow, opts ImportOptions) (*ImportResult, error) {
	slog.Info("Import request received",
		"rows", len(rows),
		"create_missing", opts.CreateMissing,
		"mark_paid", opts.MarkPaid,
	)

	result := &ImportResult{}
	reject := func(e ImportError) {
		slog.Warn("Import row rejected", "line", e.Line, "column", e.Column, "error", e.Message)
		importErrors.Inc()
		result.Errors = append(result.Errors, e)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		surname := strings.TrimSpace(row.Surname)
		givenName := strings.TrimSpace(row.GivenName)
		if surname == "" || givenName == "" {
			reject(ImportError{Line: row.Line, Message: "nom ou prénom manquant"})
			continue
		}
		name := surname + " " + givenName

		participant, created, err := s.resolveParticipant(ctx, row, surname, givenName, opts.CreateMissing)
		if err != nil {
			reject(ImportError{Line: row.Line, Participant: name, Message: err.Error()})
			continue
		}
		if created {
			result.ParticipantsCreated++
		}

		keys := make([]string, 0, len(row.Cells))
		for k := range row.Cells {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			raw := row.Cells[key]
			if isBlankCell(raw) {
				continue
			}
			cellErr := func(msg string) {
				reject(ImportError{Line: row.Line, Column: key, Participant: name, Message: msg})
			}

			period, err := models.ParsePeriod(key)
			if err != nil {
				cellErr("Mois invalide")
				continue
			}
			amount, err := parseAmount(raw)
			if err != nil {
				cellErr(fmt.Sprintf("Format invalide (%q)", raw))
				continue
			}
			if amount < 0 {
				cellErr("Montant négatif")
				continue
			}
			if amount < s.settings.MinImportAmount {
				cellErr(fmt.Sprintf("Montant inférieur au minimum (%s)", formatFCFA(s.settings.MinImportAmount)))
				continue
			}

			req := AddDueRequest{
				ParticipantID: participant.ID,
				Period:        period,
				Amount:        amount,
				Paid:          opts.MarkPaid,
			}
			if participant.ParcelCount <= 1 {
				req.Slot = models.WholeAccount{}
			}
			if _, err := s.dues.allocate(ctx, req, pathImport); err != nil {
				cellErr(err.Error())
				continue
			}
			result.Imported++
		}
	}

	slog.Info("Import finished",
		"imported", result.Imported,
		"participants_created", result.ParticipantsCreated,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (s *ImportService) resolveParticipant(ctx context.Context, row ImportRow, surname, givenName string, create bool) (*models.Participant, bool, error) {
	p, err := s.participants.FindByName(ctx, surname, givenName)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}
	if !create {
		return nil, false, fmt.Errorf("participant inconnu: %w", models.ErrNotFound)
	}

	p = &models.Participant{Surname: surname, GivenName: givenName}
	if row.ParcelCount != nil {
		p.ParcelCount = *row.ParcelCount
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, false, fmt.Errorf("erreur création participant: %w", err)
	}
	return p, true, nil
}
