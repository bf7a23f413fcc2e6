package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError renders err as {code, message, details}. Errors that are not
// DomainErrors become a generic internal error.
func writeError(w http.ResponseWriter, err error) {
	domainErr, ok := apperrors.GetDomainError(err)
	if !ok {
		domainErr = apperrors.NewInternalError("internal server error", err)
	}
	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", domainErr.Code).Msg("Request failed")
	}
	writeJSON(w, domainErr.HTTPStatus, domainErr)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewBadRequestError("invalid request body", err.Error())
	}
	return nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("invalid "+name, raw)
	}
	return id, nil
}
