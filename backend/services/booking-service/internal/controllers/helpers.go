package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rikster-r/booking-calendar/backend/services/booking-service/internal/authz"
	shared_dtos "github.com/rikster-r/booking-calendar/backend/shared/go-dtos"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

var validate = validator.New()

// decodeAndValidate decodes a JSON body into dst and runs the validator.
// On failure the response is already written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err)
		return false
	}
	return validateBody(w, dst)
}

// decodeOptional is decodeAndValidate for endpoints that accept an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return validateBody(w, dst)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err)
		return false
	}
	return validateBody(w, dst)
}

func validateBody(w http.ResponseWriter, dst any) bool {
	if err := validate.Struct(dst); err != nil {
		var details any
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details = shared_dtos.FormatValidationErrors(verrs)
		}
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", details, err)
		return false
	}
	return true
}

// pathUUID parses a mux variable as a UUID, answering 400 when it is not one.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid "+name, nil, err)
		return uuid.Nil, false
	}
	return id, true
}

// requireActor returns the actor resolved by the authz middleware.
func requireActor(w http.ResponseWriter, r *http.Request) (*authz.Actor, bool) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", nil, nil)
		return nil, false
	}
	return actor, true
}
