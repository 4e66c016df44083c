package api

import (
	"errors"
	"net/http"

	"walrus/cmd/internal/auth"
	"walrus/cmd/internal/validate"
	"walrus/cmd/security/token"
)

// Messages the adapter owns. Everything else surfaces the service error
// verbatim.
const (
	msgBadToken      = "Missing or bad token in request"
	msgTokenNotFound = "Token cannot be found"
	msgTokenExpired  = "Token has expired"
	msgInternal      = "Something went wrong"
)

// writeServiceError maps an error kind onto a status code and body. A
// storage failure with no semantic kind becomes an opaque 500; the cause
// goes to the log, never to the caller.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, token.ErrBadToken):
		writeError(w, http.StatusBadRequest, msgBadToken)
	case errors.Is(err, auth.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
	case errors.Is(err, auth.ErrInterrupted):
		writeError(w, http.StatusConflict, auth.ErrInterrupted.Error())
	case errors.Is(err, auth.ErrExpired):
		writeError(w, http.StatusUnauthorized, auth.ErrExpired.Error())
	case errors.Is(err, auth.ErrTokenNotFound):
		writeError(w, http.StatusUnauthorized, msgTokenNotFound)
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, msgTokenExpired)
	case validate.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("api.internal", "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
