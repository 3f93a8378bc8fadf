package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/cotisations/internal/models"
)

const dateLayout = "2006-01-02"

type participantResponse struct {
	ID          int64     `json:"id"`
	Surname     string    `json:"surname"`
	GivenName   string    `json:"given_name"`
	FullName    string    `json:"full_name"`
	ParcelCount int       `json:"parcel_count"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toParticipantResponse(p *models.Participant) participantResponse {
	return participantResponse{
		ID:          p.ID,
		Surname:     p.Surname,
		GivenName:   p.GivenName,
		FullName:    p.FullName(),
		ParcelCount: p.ParcelCount,
		Phone:       p.Phone,
		Email:       p.Email,
		CreatedAt:   p.CreatedAt,
	}
}

type participantRequest struct {
	Surname     string `json:"surname" validate:"required,notblank"`
	GivenName   string `json:"given_name" validate:"required,notblank"`
	ParcelCount int    `json:"parcel_count" validate:"gte=0"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func (req participantRequest) toModel(id int64) *models.Participant {
	return &models.Participant{
		ID:          id,
		Surname:     req.Surname,
		GivenName:   req.GivenName,
		ParcelCount: req.ParcelCount,
		Phone:       req.Phone,
		Email:       req.Email,
	}
}

type dueResponse struct {
	ID            int64   `json:"id"`
	ParticipantID int64   `json:"participant_id"`
	Surname       string  `json:"surname,omitempty"`
	GivenName     string  `json:"given_name,omitempty"`
	Period        string  `json:"period"`
	PeriodLabel   string  `json:"period_label"`
	Amount        float64 `json:"amount"`
	Paid          bool    `json:"paid"`
	PaidOn        *string `json:"paid_on"`

	// Slot is the parcel number, or 0 for a whole-account due.
	Slot      int       `json:"slot"`
	SlotLabel string    `json:"slot_label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toDueResponse(d *models.DueRecord) dueResponse {
	resp := dueResponse{
		ID:            d.ID,
		ParticipantID: d.ParticipantID,
		Period:        d.Period.Key(),
		PeriodLabel:   d.Period.Label(),
		Amount:        d.Amount,
		Paid:          d.Paid,
		Slot:          models.SlotNumber(d.Slot),
		SlotLabel:     d.Slot.Label(),
		CreatedAt:     d.CreatedAt,
	}
	if d.PaidOn != nil {
		paidOn := d.PaidOn.Format(dateLayout)
		resp.PaidOn = &paidOn
	}
	return resp
}

func toDueResponses(dues []*models.DueRecord) []dueResponse {
	out := make([]dueResponse, len(dues))
	for i, d := range dues {
		out[i] = toDueResponse(d)
	}
	return out
}

type addDueRequest struct {
	ParticipantID int64   `json:"participant_id" validate:"required,gt=0"`
	Month         int     `json:"month" validate:"required,min=1,max=12"`
	Year          int     `json:"year" validate:"required"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	Paid          bool    `json:"paid"`

	// Slot pins the due: 0 for the whole account, n for parcel n.
	// When omitted the amount is split across the participant's parcels.
	Slot *int `json:"slot" validate:"omitempty,gte=0"`
}

type addDueResponse struct {
	Dues []dueResponse `json:"dues"`
}

type paymentRequest struct {
	Paid *bool `json:"paid" validate:"required"`

	// Amount replaces the due's amount when it becomes paid.
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
}

type generateRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required"`
}

type historyResponse struct {
	ID         int64          `json:"id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	Table      string         `json:"table"`
	RecordID   int64          `json:"record_id"`
	Detail     string         `json:"detail"`
	Before     map[string]any `json:"before,omitempty"`
	After      map[string]any `json:"after,omitempty"`
}

func toHistoryResponses(entries []*models.HistoryEntry) []historyResponse {
	out := make([]historyResponse, len(entries))
	for i, e := range entries {
		out[i] = historyResponse{
			ID:         e.ID,
			OccurredAt: e.OccurredAt,
			Actor:      e.Actor,
			Action:     string(e.Action),
			Table:      string(e.Table),
			RecordID:   e.RecordID,
			Detail:     e.Detail,
			Before:     e.Before,
			After:      e.After,
		}
	}
	return out
}

// pathID parses the named URL parameter as a positive ID.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", models.ErrInvalidInput, name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. It returns nil when
// the parameter is absent.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", models.ErrInvalidInput, name, raw)
	}
	return &n, nil
}

// queryBool parses an optional boolean query parameter, false when absent.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s %q", models.ErrInvalidInput, name, raw)
	}
	return b, nil
}
