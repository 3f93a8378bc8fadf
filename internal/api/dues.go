package api

import (
	"fmt"
	"net/http"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/service"
	"github.com/mmynk/cotisations/internal/storage"
)

// dueFilterFromQuery reads year, month, participant_id and status=paid|unpaid.
func dueFilterFromQuery(r *http.Request) (storage.DueFilter, error) {
	var filter storage.DueFilter

	year, err := queryInt(r, "year")
	if err != nil {
		return filter, err
	}
	if year != nil {
		filter.Year = *year
	}
	month, err := queryInt(r, "month")
	if err != nil {
		return filter, err
	}
	if month != nil {
		if *month < 1 || *month > 12 {
			return filter, fmt.Errorf("%w: month %d not in 1..12", models.ErrInvalidPeriod, *month)
		}
		filter.Month = *month
	}
	participantID, err := queryInt(r, "participant_id")
	if err != nil {
		return filter, err
	}
	if participantID != nil {
		filter.ParticipantID = int64(*participantID)
	}

	switch status := r.URL.Query().Get("status"); status {
	case "", "all":
	case "paid", "unpaid":
		paid := status == "paid"
		filter.Paid = &paid
	default:
		return filter, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	return filter, nil
}

func (s *Server) handleListDues(w http.ResponseWriter, r *http.Request) {
	filter, err := dueFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detailed, err := s.services.Reports.ListDetailed(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]dueResponse, len(detailed))
	for i, d := range detailed {
		out[i] = toDueResponse(d.Due)
		out[i].Surname = d.Surname
		out[i].GivenName = d.GivenName
	}
	writeData(w, http.StatusOK, "", out)
}

func (s *Server) handleAddDue(w http.ResponseWriter, r *http.Request) {
	var req addDueRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	addReq := service.AddDueRequest{
		ParticipantID: req.ParticipantID,
		Period:        models.Period{Month: req.Month, Year: req.Year},
		Amount:        req.Amount,
		Paid:          req.Paid,
	}
	if req.Slot != nil {
		addReq.Slot = models.SlotFromNumber(*req.Slot)
	}

	result, err := s.services.Dues.AddDue(r.Context(), addReq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, result.Message, addDueResponse{Dues: toDueResponses(result.Dues)})
}

func (s *Server) handleGenerateMonth(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.services.Dues.GenerateMonth(r.Context(), models.Period{Month: req.Month, Year: req.Year})
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := fmt.Sprintf("%d cotisation(s) créée(s), %d existante(s)", result.Created, result.Existing)
	writeData(w, http.StatusOK, msg, result)
}

func (s *Server) handleSetPaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paymentRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	due, err := s.services.Dues.SetPaid(r.Context(), service.SetPaidRequest{
		DueID:  id,
		Paid:   *req.Paid,
		Amount: req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", toDueResponse(due))
}

func (s *Server) handleDeleteDue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.services.Dues.DeleteDue(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
