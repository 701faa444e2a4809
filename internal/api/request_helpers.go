package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
)

// optionalUUID converts a possibly nil UUID into a NullUUID.
func optionalUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// queryUserID reads the optional user_id query parameter.
func queryUserID(r *http.Request) (uuid.NullUUID, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.NullUUID{}, domain.NewValidationError("user_id", "has invalid format", domain.ErrValidation)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", domain.ErrValidation)
	}
	return n, nil
}

// queryBool reads a boolean query parameter, returning def when absent.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError(name, "must be a boolean", domain.ErrValidation)
	}
	return b, nil
}
