package api

import (
	"net/http"
)

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.services.Participants.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]participantResponse, len(participants))
	for i, p := range participants {
		out[i] = toParticipantResponse(p)
	}
	writeData(w, http.StatusOK, "", out)
}

func (s *Server) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	p := req.toModel(0)
	if err := s.services.Participants.Create(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Participant créé", toParticipantResponse(p))
}

func (s *Server) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.services.Participants.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", toParticipantResponse(p))
}

func (s *Server) handleUpdateParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req participantRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	p := req.toModel(id)
	if err := s.services.Participants.Update(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.services.Participants.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Participant mis à jour", toParticipantResponse(updated))
}

func (s *Server) handleDeleteParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.services.Participants.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParticipantStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := s.services.Participants.Stats(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", stats)
}

func (s *Server) handleParticipantHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var n int
	if limit != nil {
		n = *limit
	}
	entries, err := s.services.History.ForParticipant(r.Context(), id, n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", toHistoryResponses(entries))
}
