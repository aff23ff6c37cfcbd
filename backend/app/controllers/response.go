package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"pollhub/backend/app/dto"
	"pollhub/backend/app/middleware"
	"pollhub/backend/app/repo"
	"pollhub/backend/app/services"
	"pollhub/backend/global"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON body of at most 1MB into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// writeStatusError answers domain errors (missing field, not found) with 200 and status "error";
// store failures get a 500.
func writeStatusError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		writeJSON(w, http.StatusOK, dto.StatusResponse{Status: dto.StatusError, Message: err.Error()})
	case errors.Is(err, repo.ErrNotFound):
		writeJSON(w, http.StatusOK, dto.StatusResponse{Status: dto.StatusError, Message: repo.ErrNotFound.Error()})
	default:
		writeInternalError(w, r, err)
	}
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	global.Logger.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, dto.StatusResponse{Status: dto.StatusError, Message: "internal error"})
}

func writeBadBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: dto.StatusError, Message: "invalid JSON body"})
}
