package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/checkin"
	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/rs/zerolog/log"
)

func (s *Server) CheckInStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())

		status, err := s.checkIns.Status(r.Context(), userID)
		if err != nil {
			log.Error().Err(err).Str("user", userID).Msg("check-in status failed")
			writeError(w, http.StatusInternalServerError, "failed to load check-in status")
			return
		}

		resp := apimodel.StatusResponse{
			CompletedToday: status.CompletedToday,
			CanPerform:     status.CanPerform(),
			NextEligibleAt: status.NextEligibleAt.UTC(),
		}
		if status.Record != nil {
			reward, err := s.checkIns.RewardFor(r.Context(), status.Record)
			if err != nil {
				log.Error().Err(err).Str("user", userID).Msg("reward lookup failed")
				writeError(w, http.StatusInternalServerError, "failed to load check-in status")
				return
			}
			rec := toAPIRecord(status.Record, reward.TotalPoints)
			resp.Record = &rec
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) CheckInSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())

		var payload apimodel.CheckInPayload
		if err := decodeJSON(w, r, &payload); err != nil {
			s.metrics.CheckIn("invalid")
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, reward, err := s.checkIns.Submit(r.Context(), userID, checkin.Payload{
			Mood:     payload.Mood,
			Feedback: payload.Feedback,
		})
		if err != nil {
			var verr *checkin.ValidationError
			switch {
			case errors.As(err, &verr):
				s.metrics.CheckIn("invalid")
				writeValidationError(w, toAPIFieldErrors(verr.Fields))
			case errors.Is(err, checkin.ErrAlreadyCheckedIn):
				s.metrics.CheckIn("duplicate")
				writeError(w, http.StatusConflict, checkin.ErrAlreadyCheckedIn.Error())
			default:
				s.metrics.CheckIn("error")
				log.Error().Err(err).Str("user", userID).Msg("check-in failed")
				writeError(w, http.StatusInternalServerError, "failed to record check-in")
			}
			return
		}

		s.metrics.CheckIn("accepted")
		apiRec := toAPIRecord(rec, reward.TotalPoints)
		writeJSON(w, http.StatusCreated, apimodel.SubmitResponse{
			Record:        apiRec,
			RewardSummary: apiRec.RewardSummary,
		})
	}
}

func (s *Server) CheckInHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeValidationError(w, []apimodel.FieldError{{Field: "limit", Message: "must be a positive integer"}})
				return
			}
			limit = n
		}

		records, err := s.checkIns.History(r.Context(), userID, limit)
		if err != nil {
			log.Error().Err(err).Str("user", userID).Msg("check-in history failed")
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}

		total := 0
		if len(records) > 0 {
			reward, err := s.checkIns.RewardFor(r.Context(), records[0])
			if err != nil {
				log.Error().Err(err).Str("user", userID).Msg("reward lookup failed")
				writeError(w, http.StatusInternalServerError, "failed to load history")
				return
			}
			total = reward.TotalPoints
		}

		resp := apimodel.HistoryResponse{
			Records:     make([]apimodel.Record, 0, len(records)),
			TotalPoints: total,
		}
		for _, rec := range records {
			resp.Records = append(resp.Records, toAPIRecord(rec, 0))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
