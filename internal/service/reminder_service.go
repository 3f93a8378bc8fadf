package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/cotisations/internal/calculator"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/storage"
)

// ReminderService prepares WhatsApp payment reminders for unpaid dues.
type ReminderService struct {
	store    storage.Store
	settings Settings
}

// NewReminderService creates a new ReminderService with the given storage backend.
func NewReminderService(store storage.Store, settings Settings) *ReminderService {
	return &ReminderService{store: store, settings: settings.withDefaults()}
}

// ReminderCandidate is a reachable participant with unpaid dues.
type ReminderCandidate struct {
	Participant *models.Participant
	UnpaidCount int
	UnpaidTotal decimal.Decimal
}

// Reminder is a ready-to-send message and its wa.me link.
type Reminder struct {
	Participant *models.Participant
	Dues        []*models.DueRecord
	Total       decimal.Decimal
	Message     string

	// Link is empty when the participant has no phone number.
	Link string
}

// Candidates lists participants with a phone number and at least one unpaid
// due, largest amount owed first.
func (s *ReminderService) Candidates(ctx context.Context) ([]ReminderCandidate, error) {
	slog.Info("ReminderCandidates request received")

	unpaid := false
	dues, err := s.store.ListDues(ctx, storage.DueFilter{Paid: &unpaid})
	if err != nil {
		slog.Error("ReminderCandidates failed", "error", err)
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		slog.Error("ReminderCandidates failed", "error", err)
		return nil, err
	}

	owed := make(map[int64][]calculator.DueAmount)
	for _, d := range dues {
		owed[d.ParticipantID] = append(owed[d.ParticipantID], calculator.DueAmount{Amount: d.Amount})
	}

	var candidates []ReminderCandidate
	for _, p := range participants {
		amounts := owed[p.ID]
		if p.Phone == "" || len(amounts) == 0 {
			continue
		}
		c := calculator.SummarizeDues(amounts)
		candidates = append(candidates, ReminderCandidate{
			Participant: p,
			UnpaidCount: c.UnpaidCount,
			UnpaidTotal: c.Outstanding,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].UnpaidTotal.GreaterThan(candidates[j].UnpaidTotal)
	})
	return candidates, nil
}

// Build writes the reminder for one participant.
// It returns models.ErrNotFound when the participant owes nothing.
func (s *ReminderService) Build(ctx context.Context, participantID int64) (*Reminder, error) {
	slog.Info("BuildReminder request received", "participant_id", participantID)

	p, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	unpaid := false
	dues, err := s.store.ListDues(ctx, storage.DueFilter{ParticipantID: participantID, Paid: &unpaid})
	if err != nil {
		slog.Error("BuildReminder failed", "participant_id", participantID, "error", err)
		return nil, err
	}
	if len(dues) == 0 {
		return nil, fmt.Errorf("no unpaid dues for %s: %w", p.FullName(), models.ErrNotFound)
	}

	total := decimal.Zero
	for _, d := range dues {
		total = total.Add(decimal.NewFromFloat(d.Amount))
	}

	r := &Reminder{
		Participant: p,
		Dues:        dues,
		Total:       total,
		Message:     s.message(p, dues, total),
	}
	if phone := s.normalizePhone(p.Phone); phone != "" {
		r.Link = "https://wa.me/" + phone + "?text=" + url.QueryEscape(r.Message)
	}
	return r, nil
}

func (s *ReminderService) message(p *models.Participant, dues []*models.DueRecord, total decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bonjour %s %s,\n\n", p.GivenName, p.Surname)
	fmt.Fprintf(&b, "Rappel Cotisations %s\n\n", s.settings.OrgName)
	fmt.Fprintf(&b, "Nous vous rappelons que vous avez %d cotisation(s) en attente de paiement:\n\n", len(dues))
	for _, d := range dues {
		b.WriteString("• " + d.Period.Label())
		if label := d.Slot.Label(); label != "" {
			b.WriteString(" (" + label + ")")
		}
		b.WriteString(": " + formatFCFA(d.Amount) + "\n")
	}
	fmt.Fprintf(&b, "\nTotal à payer: %s\n\n", formatDecimalFCFA(total))
	b.WriteString("Merci de régulariser votre situation dans les meilleurs délais.\n\n")
	b.WriteString("Pour toute question, n'hésitez pas à nous contacter.\n\n")
	fmt.Fprintf(&b, "Cordialement,\nL'équipe %s", s.settings.OrgName)
	return b.String()
}

// normalizePhone keeps digits only and prefixes local 9-digit numbers with
// the country code.
func (s *ReminderService) normalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) == 9 && !strings.HasPrefix(digits, s.settings.PhoneCountryCode) {
		digits = s.settings.PhoneCountryCode + digits
	}
	return digits
}
