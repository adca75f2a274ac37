// ABOUTME: JSON response helpers and storage-error to HTTP status mapping.
// ABOUTME: Internal errors are logged and replaced with a generic message.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
	"go.uber.org/zap"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// fail maps err onto a status. notFound and internal are the messages for
// a missing record and for anything unexpected.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound, internal string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondWithError(w, http.StatusNotFound, notFound)
	case errors.Is(err, models.ErrInvalid), errors.Is(err, storage.ErrAmbiguous):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(internal,
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		respondWithError(w, http.StatusInternalServerError, internal)
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", models.ErrInvalid, err)
	}
	return nil
}
