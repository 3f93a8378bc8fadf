package api

import (
	"fmt"
	"net/http"

	"github.com/mmynk/cotisations/internal/importer"
	"github.com/mmynk/cotisations/internal/models"
	"github.com/mmynk/cotisations/internal/service"
)

// maxUploadBytes caps spreadsheet uploads.
const maxUploadBytes = 10 << 20

// handleImport reads a CSV upload from the "file" form field.
// Query parameters: paid=true marks every due paid, create=false rejects
// unknown participants, sep=; and encoding=windows-1252 describe the file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	paid, err := queryBool(r, "paid")
	if err != nil {
		writeError(w, r, err)
		return
	}
	create := true
	if r.URL.Query().Get("create") != "" {
		if create, err = queryBool(r, "create"); err != nil {
			writeError(w, r, err)
			return
		}
	}

	opts := importer.Options{}
	if sep := r.URL.Query().Get("sep"); sep != "" {
		runes := []rune(sep)
		if len(runes) != 1 {
			writeError(w, r, fmt.Errorf("%w: separator must be one character", models.ErrInvalidInput))
			return
		}
		opts.Delimiter = runes[0]
	}
	switch enc := r.URL.Query().Get("encoding"); enc {
	case "", "utf-8", "utf8":
	case "windows-1252", "cp1252", "latin1":
		opts.Windows1252 = true
	default:
		writeError(w, r, fmt.Errorf("%w: unsupported encoding %q", models.ErrInvalidInput, enc))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing file: %v", models.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	rows, err := importer.ReadRows(file, opts)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
		return
	}

	result, err := s.services.Import.Import(r.Context(), rows, service.ImportOptions{
		CreateMissing: create,
		MarkPaid:      paid,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := fmt.Sprintf("%d cotisation(s) importée(s), %d erreur(s)", result.Imported, len(result.Errors))
	writeData(w, http.StatusOK, msg, result)
}
