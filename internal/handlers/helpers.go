package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.APIError{Error: http.StatusText(status), Message: message})
}
