package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/response"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1_048_576

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, &response.ErrorResponse{Error: message})
}

func writeData[T any](w http.ResponseWriter, status int, message string, data T) {
	resp := &response.APIResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
	if err := writeJSON(w, status, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// readJSON decodes a single JSON object from the request body into data.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidInput, err)
	}
	if decoder.More() {
		return fmt.Errorf("%w: request body must hold a single JSON value", models.ErrInvalidInput)
	}
	return nil
}
