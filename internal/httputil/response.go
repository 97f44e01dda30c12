// Package httputil contains shared HTTP utilities for consistent response formatting across handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/mis"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/repository"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/session"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
)

func WriteJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// StatusFor maps a domain error to the HTTP status reported to the client.
func StatusFor(err error) int {
	var fetchErr *mis.FetchError

	switch {
	case errors.Is(err, task.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, err error) {
	WriteJSONError(w, err.Error(), StatusFor(err))
}
