package api

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type reminderCandidateResponse struct {
	Participant participantResponse `json:"participant"`
	UnpaidCount int                 `json:"unpaid_count"`
	UnpaidTotal decimal.Decimal     `json:"unpaid_total"`
}

type reminderResponse struct {
	Participant participantResponse `json:"participant"`
	Dues        []dueResponse       `json:"dues"`
	Total       decimal.Decimal     `json:"total"`
	Message     string              `json:"message"`
	Link        string              `json:"link,omitempty"`
}

func (s *Server) handleReminderCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.services.Reminders.Candidates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]reminderCandidateResponse, len(candidates))
	for i, c := range candidates {
		out[i] = reminderCandidateResponse{
			Participant: toParticipantResponse(c.Participant),
			UnpaidCount: c.UnpaidCount,
			UnpaidTotal: c.UnpaidTotal,
		}
	}
	writeData(w, http.StatusOK, "", out)
}

func (s *Server) handleBuildReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "participantID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	reminder, err := s.services.Reminders.Build(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", reminderResponse{
		Participant: toParticipantResponse(reminder.Participant),
		Dues:        toDueResponses(reminder.Dues),
		Total:       reminder.Total,
		Message:     reminder.Message,
		Link:        reminder.Link,
	})
}
