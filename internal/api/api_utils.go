package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func respondWithJson(w http.ResponseWriter, statusCode int, response []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(response); err != nil {
		log.Errorf("cannot write response, %v", err)
	}
}

// marshalAndRespond is the common tail of every handler
func marshalAndRespond(w http.ResponseWriter, statusCode int, payload any) {
	responseBytes, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("unable to marshal %T, %v", payload, err)
		http.Error(w, potd_errors.ErrInternal.Error(), http.StatusInternalServerError)
		return
	}
	respondWithJson(w, statusCode, responseBytes)
}

func decodeJsonBody(body io.Reader, v any) error {
	decoder := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w, %w", potd_errors.ErrInvalidRequest, err)
	}
	return nil
}

func handlerError(err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, potd_errors.ErrInvalidInput),
		errors.Is(err, potd_errors.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, potd_errors.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, potd_errors.ErrInvalidUserCredentials),
		errors.Is(err, potd_errors.ErrUnAuthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, potd_errors.ErrEntityAlreadyExist):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, potd_errors.ErrUpstreamUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, potd_errors.ErrTaskLaunchError):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		// the message may carry database details
		log.Errorf("unhandled error in handler, %v", err)
		http.Error(w, potd_errors.ErrInternal.Error(), http.StatusInternalServerError)
	}
}
