package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/matchbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	codeValidation        = "validation_error"
	codeInvalidTransition = "invalid_state_transition"
	codeForbiddenActor    = "forbidden_actor"
	codeRescheduleLimit   = "reschedule_limit_exceeded"
	codeNotFound          = "not_found"
	codeUnauthenticated   = "unauthenticated"
	codeInternal          = "internal_error"
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// classify maps a service error to its HTTP status and stable error code.
func classify(err error) (int, string) {
	var (
		verr  *domain.ValidationError
		cerr  *domain.ConflictError
		ist   *domain.InvalidStateTransition
		limit *domain.RescheduleLimitExceeded
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, codeValidation
	case errors.As(err, &cerr):
		return http.StatusConflict, string(cerr.Reason)
	case errors.As(err, &limit):
		return http.StatusUnprocessableEntity, codeRescheduleLimit
	case errors.As(err, &ist):
		switch ist.Reason {
		case domain.ReasonWrongActor, domain.ReasonNotOwner:
			return http.StatusForbidden, codeForbiddenActor
		case domain.ReasonNotFound:
			return http.StatusNotFound, codeNotFound
		default:
			return http.StatusConflict, codeInvalidTransition
		}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, errorResponse{Code: code, Error: "internal error"})
		return
	}
	resp := errorResponse{Code: code, Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Code: codeValidation, Error: err.Error()})
}
