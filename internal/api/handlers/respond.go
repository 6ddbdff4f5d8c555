package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/propertymarket/backend/internal/api/middleware"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

var statusByType = map[apperrors.ErrorType]int{
	apperrors.ErrorTypeValidation:         http.StatusBadRequest,
	apperrors.ErrorTypeInvalidFilterValue: http.StatusBadRequest,
	apperrors.ErrorTypeInvalidRatingScore: http.StatusBadRequest,
	apperrors.ErrorTypeNotFound:           http.StatusNotFound,
	apperrors.ErrorTypeSubjectNotFound:    http.StatusNotFound,
	apperrors.ErrorTypeConflict:           http.StatusConflict,
	apperrors.ErrorTypeUnauthorized:       http.StatusUnauthorized,
	apperrors.ErrorTypeForbidden:          http.StatusForbidden,
	apperrors.ErrorTypeExternal:           http.StatusBadGateway,
	apperrors.ErrorTypeStorageUnavailable: http.StatusServiceUnavailable,
}

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithAppError maps an error onto its HTTP status. Anything that is
// not a client error is logged and its message hidden.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		respondWithJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", Code: string(apperrors.ErrorTypeInternal)})
		return
	}

	status, known := statusByType[appErr.Type]
	if !known {
		status = http.StatusInternalServerError
	}

	message := appErr.Message
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}

	respondWithJSON(w, status, errorBody{Error: message, Code: string(appErr.Type), Field: appErr.Field})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return apperrors.NewValidationError("malformed JSON body")
		}
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

// actorFrom converts the request's verified claims into a service actor
func actorFrom(r *http.Request) *services.Actor {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return nil
	}
	return &services.Actor{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
}
