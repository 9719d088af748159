package handlers

import (
	"errors"
	"net/http"
	"strings"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/utils"
)

// writeError maps a service error onto a status code and JSON body. resource
// names the entity in not-found, conflict and forbidden messages. Unexpected
// errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error, resource string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", validationMessage(err))
	case errors.Is(err, common.ErrInvalidCredentials):
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", "Invalid username or password")
	case errors.Is(err, common.ErrUnauthenticated):
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Not logged in")
	case errors.Is(err, common.ErrForbidden):
		utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "You do not own this "+strings.ToLower(resource))
	case errors.Is(err, common.ErrNotFound):
		utils.WriteErrorResponse(w, http.StatusNotFound, resource+" not found", "")
	case errors.Is(err, common.ErrConflict):
		utils.WriteErrorResponse(w, http.StatusConflict, resource+" already exists", "")
	default:
		logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

// validationMessage strips the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, common.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(common.ErrValidation.Error())+2:]
	}
	return msg
}
