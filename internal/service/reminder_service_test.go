package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/mmynk/cotisations/internal/models"
)

func TestReminderCandidates(t *testing.T) {
	svc, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	dupont, martin := seedLedger(t, svc)
	for _, p := range []*models.Participant{dupont, martin} {
		p.Phone = "06 123 45 67"
		if err := svc.participants.Update(ctx, p); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	// No phone, never reminded.
	silent := svc.mustParticipant(t, "Sans", "Telephone", 1)
	if _, err := svc.dues.GenerateMonth(ctx, models.Period{Month: 9, Year: 2025}); err != nil {
		t.Fatalf("GenerateMonth failed: %v", err)
	}

	candidates, err := svc.reminders.Candidates(ctx)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Participant.ID != dupont.ID || candidates[0].UnpaidCount != 3 {
		t.Errorf("first candidate = %+v, want Dupont with 3 unpaid", candidates[0])
	}
	if candidates[1].Participant.ID != martin.ID || candidates[1].UnpaidTotal.IntPart() != 3000 {
		t.Errorf("second candidate = %+v, want Martin owing 3000", candidates[1])
	}
	for _, c := range candidates {
		if c.Participant.ID == silent.ID {
			t.Error("participant without phone listed")
		}
	}
}

func TestBuildReminder(t *testing.T) {
	svc, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	p := svc.mustParticipant(t, "Martin", "Marie", 2)
	p.Phone = "06-123-45-67"
	if err := svc.participants.Update(ctx, p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := svc.dues.AddDue(ctx, AddDueRequest{
		ParticipantID: p.ID, Period: models.Period{Month: 8, Year: 2025}, Amount: 1000, Slot: models.WholeAccount{},
	}); err != nil {
		t.Fatalf("AddDue failed: %v", err)
	}
	if _, err := svc.dues.GenerateMonth(ctx, models.Period{Month: 9, Year: 2025}); err != nil {
		t.Fatalf("GenerateMonth failed: %v", err)
	}

	r, err := svc.reminders.Build(ctx, p.ID)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := "Bonjour Marie Martin,\n\n" +
		"Rappel Cotisations MEDD\n\n" +
		"Nous vous rappelons que vous avez 3 cotisation(s) en attente de paiement:\n\n" +
		"• Août 2025: 1 000 FCFA\n" +
		"• Sep 2025 (Terrain n°1): 1 000 FCFA\n" +
		"• Sep 2025 (Terrain n°2): 1 000 FCFA\n" +
		"\nTotal à payer: 3 000 FCFA\n\n" +
		"Merci de régulariser votre situation dans les meilleurs délais.\n\n" +
		"Pour toute question, n'hésitez pas à nous contacter.\n\n" +
		"Cordialement,\nL'équipe MEDD"
	if r.Message != want {
		t.Errorf("Message =\n%s\nwant\n%s", r.Message, want)
	}

	if !strings.HasPrefix(r.Link, "https://wa.me/242061234567?text=") {
		t.Fatalf("Link = %q", r.Link)
	}
	u, err := url.Parse(r.Link)
	if err != nil {
		t.Fatalf("Link does not parse: %v", err)
	}
	if u.Query().Get("text") != r.Message {
		t.Error("link text does not decode to the message")
	}
}

func TestBuildReminderNothingOwed(t *testing.T) {
	svc, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	p := svc.mustParticipant(t, "Martin", "Marie", 1)
	if _, err := svc.reminders.Build(ctx, p.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, err := svc.reminders.Build(ctx, 999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown participant: got %v, want ErrNotFound", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	s := NewReminderService(nil, DefaultSettings())

	tests := []struct {
		phone string
		want  string
	}{
		{phone: "06 123 45 67", want: "242061234567"},
		{phone: "+242 06 123 45 67", want: "242061234567"},
		{phone: "242123456", want: "242123456"},
		{phone: "0033 6 12 34 56 78", want: "0033612345678"},
		{phone: "", want: ""},
	}
	for _, tt := range tests {
		if got := s.normalizePhone(tt.phone); got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.phone, got, tt.want)
		}
	}
}
