// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"farecast/internal/modules/location"
	"farecast/internal/modules/prediction"
	"farecast/internal/modules/session"
	"farecast/internal/modules/trip"
	"farecast/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the UUIDs the session manager and quote store hand out.
func isValidID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeSessionError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, trip.ErrInvalidCoordinate),
		errors.Is(err, trip.ErrInvalidPassengerCount),
		errors.Is(err, trip.ErrInvalidPickupTime),
		errors.Is(err, location.ErrEmptyQuery):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrClosed),
		errors.Is(err, location.ErrPlaceNotFound),
		errors.Is(err, prediction.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrPredictionInFlight),
		errors.Is(err, trip.ErrIncompleteTrip):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, prediction.ErrUnavailable),
		errors.Is(err, session.ErrSearchUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// idParam reads and validates a UUID path parameter, writing a 400 on failure.
func idParam(c *gin.Context, name string) (types.ID, bool) {
	id := c.Param(name)
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing "+name)
		return "", false
	}
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(id), true
}
