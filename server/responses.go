package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/checkin"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apimodel.ErrorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, fields []apimodel.FieldError) {
	writeJSON(w, http.StatusBadRequest, apimodel.ErrorResponse{
		Message: "validation failed",
		Errors:  fields,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	return dec.Decode(v)
}

func toAPIRecord(rec *checkin.Record, totalPoints int) apimodel.Record {
	return apimodel.Record{
		ID:          rec.ID,
		PerformedAt: rec.PerformedAt.UTC(),
		Payload: apimodel.CheckInPayload{
			Mood:     rec.Payload.Mood,
			Feedback: rec.Payload.Feedback,
		},
		RewardSummary: apimodel.RewardSummary{
			PointsAwarded: rec.PointsAwarded,
			Streak:        rec.Streak,
			TotalPoints:   totalPoints,
		},
	}
}

func toAPIFieldErrors(fields []checkin.FieldError) []apimodel.FieldError {
	out := make([]apimodel.FieldError, 0, len(fields))
	for _, f := range fields {
		out = append(out, apimodel.FieldError{Field: f.Field, Message: f.Message})
	}
	return out
}
