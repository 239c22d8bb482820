// README: Server-sent event stream of session frames.
package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const streamKeepAlive = 15 * time.Second

// Stream handles GET /api/sessions/:id/stream. It sends every frame as an
// event named after its kind, a ping while idle, and a final close event
// when the session ends.
func (h *SessionHandler) Stream(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	frames, cancel, err := s.Subscribe()
	if err != nil {
		writeSessionError(c, err)
		return
	}
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ping := time.NewTicker(streamKeepAlive)
	defer ping.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ping.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		case f, ok := <-frames:
			if !ok {
				c.SSEvent("close", gin.H{"reason": "session closed"})
				return false
			}
			c.SSEvent(string(f.Kind), f.Payload)
			return true
		}
	})
}
