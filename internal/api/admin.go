package api

import (
	"net/http"
	"path/filepath"

	"github.com/mmynk/cotisations/internal/backup"
)

type backupResponse struct {
	File string `json:"file"`
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	path, err := backup.Run(r.Context(), s.snapshots, s.backup.Dir, s.backup.Keep)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Sauvegarde créée", backupResponse{File: filepath.Base(path)})
}
