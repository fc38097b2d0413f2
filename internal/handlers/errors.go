package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"examquiz/internal/apierr"
	"examquiz/internal/logger"
)

// envelope is the body of every response; status is always OK or NOK
type envelope map[string]interface{}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, payload envelope) {
	body := envelope{"status": StatusOK}
	for k, v := range payload {
		body[k] = v
	}
	respondJSON(w, http.StatusOK, body)
}

// respondWithError writes the NOK envelope for err. Server side failures are logged
// with the underlying cause.
func respondWithError(w http.ResponseWriter, log *logger.Logger, err error) {
	apiErr := apierr.As(err)

	body := envelope{"status": StatusNOK, "message": apiErr.Message}
	if apiErr.Message == "" {
		body["message"] = http.StatusText(apiErr.Status)
	}
	if apiErr.Err != nil {
		body["error"] = apiErr.Err.Error()
	}

	if apiErr.Status >= http.StatusInternalServerError {
		log.Error(apiErr.Message, "code", apiErr.Code, "error", apiErr.Err)
	} else {
		log.Debug("request rejected", "status", apiErr.Status, "code", apiErr.Code, "message", apiErr.Message)
	}

	respondJSON(w, apiErr.Status, body)
}

// decodeJSON reads a size-limited JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.Validation(ErrEmptyBody)
		}
		return apierr.Validation(ErrInvalidJSON)
	}
	return nil
}

// optionalID parses an optional positive integer query parameter
func optionalID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apierr.Validation("%s must be a positive integer", name)
	}
	return &id, nil
}

// optionalInt parses an optional integer query parameter, 0 when absent
func optionalInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.Validation("%s must be an integer", name)
	}
	return n, nil
}
