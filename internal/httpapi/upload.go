package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"showcount/internal/app/upload"
	"showcount/shared/go/models"
)

type uploadRequest struct {
	Shows []models.ShowSubmission `json:"shows"`
}

// handleUpload streams batch upload progress as server-sent events. Each
// event is a JSON frame; the stream always ends with a complete or error
// event.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(ev upload.Event) {
		frame, err := json.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Msg("upload event encoding failed")
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", frame)
		flusher.Flush()
	}

	if err := s.upload.Run(r.Context(), userID, req.Shows, emit); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("batch upload failed")
	}
}
