package service

import (
	"encoding/json"
	"net/http"
)

// WriteError writes a JSON error body with the given status.
func WriteError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
