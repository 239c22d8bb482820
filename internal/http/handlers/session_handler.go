// README: Session handlers: trip edits, search, fare requests and map view.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farecast/internal/modules/prediction"
	"farecast/internal/modules/session"
)

type SessionHandler struct {
	sessions *session.Manager
	upstream Upstream
}

// NewSessionHandler serves sessions. upstream may be nil; when set, fare
// requests are refused while its circuit is open.
func NewSessionHandler(sessions *session.Manager, upstream Upstream) *SessionHandler {
	return &SessionHandler{sessions: sessions, upstream: upstream}
}

type locationReq struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

type searchReq struct {
	Query string `json:"query" binding:"max=256"`
}

type passengersReq struct {
	PassengerCount int `json:"passenger_count" binding:"required,min=1,max=6"`
}

type pickupTimeReq struct {
	PickupDatetime string `json:"pickup_datetime"`
}

func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		writeSessionError(c, err)
		return nil, false
	}
	return s, true
}

// respond writes the session snapshot after a successful edit.
func (h *SessionHandler) respond(c *gin.Context, s *session.Session, status int) {
	snap, err := s.Snapshot()
	if err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, status, snap)
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(c *gin.Context) {
	h.respond(c, h.sessions.Create(), http.StatusCreated)
}

// Get handles GET /api/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s, http.StatusOK)
}

// Delete handles DELETE /api/sessions/:id.
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.sessions.Close(id); err != nil {
		writeSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectLocation handles POST /api/sessions/:id/locations.
func (h *SessionHandler) SelectLocation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "lat and lon are required")
		return
	}
	filled, err := s.SelectLocation(*req.Lat, *req.Lon)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"filled": filled, "session": snap})
}

// Search handles POST /api/sessions/:id/search. A blank query changes nothing.
func (h *SessionHandler) Search(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req searchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	sel, err := s.Search(c.Request.Context(), req.Query)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"selection": sel, "session": snap})
}

// Reset handles POST /api/sessions/:id/reset.
func (h *SessionHandler) Reset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Reset(); err != nil {
		writeSessionError(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// SetPassengers handles PUT /api/sessions/:id/passengers.
func (h *SessionHandler) SetPassengers(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req passengersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "passenger_count must be between 1 and 6")
		return
	}
	if err := s.SetPassengerCount(req.PassengerCount); err != nil {
		writeSessionError(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// SetPickupTime handles PUT /api/sessions/:id/pickup-time. An empty value
// clears the time.
func (h *SessionHandler) SetPickupTime(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req pickupTimeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.SetPickupTime(req.PickupDatetime); err != nil {
		writeSessionError(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// SetPickupNow handles POST /api/sessions/:id/pickup-time/now.
func (h *SessionHandler) SetPickupNow(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.SetPickupNow(); err != nil {
		writeSessionError(c, err)
		return
	}
	h.respond(c, s, http.StatusOK)
}

// Predict handles POST /api/sessions/:id/predict. The fare arrives on the
// stream; the response only acknowledges the request.
func (h *SessionHandler) Predict(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if h.upstream != nil && h.upstream.BreakerState() == "open" {
		writeSessionError(c, prediction.ErrUnavailable)
		return
	}
	if err := s.Submit(); err != nil {
		writeSessionError(c, err)
		return
	}
	h.respond(c, s, http.StatusAccepted)
}

// Map handles GET /api/sessions/:id/map.
func (h *SessionHandler) Map(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	view, err := s.MapView(c.Request.Context())
	if err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, view)
}
