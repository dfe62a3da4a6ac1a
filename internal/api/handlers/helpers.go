package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/creatorhub/internal/api/middleware"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/utils"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/validator"
)

const maxJSONBody = 1 << 20

// decodeJSON reads and validates a request body, writing the error response
// itself when it returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, val *validator.Validator, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return false
	}

	if validationErrs := val.Validate(v); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return false
	}
	return true
}

// requireUser returns the authenticated user id or writes 401
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
	}
	return userID, ok
}
