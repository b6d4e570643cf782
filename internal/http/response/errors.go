package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf-backend/internal/platform/apperr"
)

// Classify maps a service error onto the HTTP status and machine code the
// envelope carries. Unrecognized errors stay 500 so nothing internal leaks
// a misleading status.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrAccessDenied):
		return http.StatusForbidden, "access_denied"
	case errors.Is(err, apperr.ErrRoleNotSet):
		return http.StatusForbidden, "role_not_set"
	case errors.Is(err, apperr.ErrIntegrity):
		return http.StatusConflict, "integrity_failure"
	case errors.Is(err, apperr.ErrAttestation):
		return http.StatusBadGateway, "attestation_failed"
	case errors.Is(err, apperr.ErrStorage):
		return http.StatusBadGateway, "storage_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func RespondAppError(c *gin.Context, err error) {
	status, code := Classify(err)
	RespondError(c, status, code, err)
}
