package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/usersapi/internal/apperror"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.New(apperror.KindValidation, "Request body is required")
		}
		return apperror.Wrap(apperror.KindValidation, "Invalid request body", err)
	}
	return nil
}

func parseIDParam(r *http.Request, param string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, apperror.New(apperror.KindValidation, "Invalid user id").WithField(param, "must be a positive integer")
	}
	return id, nil
}

type field struct {
	name  string
	value string
}

// requireFields reports every blank field as a validation error.
func requireFields(fields ...field) error {
	var verr *apperror.Error
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			continue
		}
		if verr == nil {
			verr = apperror.New(apperror.KindValidation, "Missing required fields")
		}
		verr = verr.WithField(f.name, "is required")
	}
	if verr == nil {
		return nil
	}
	return verr
}
