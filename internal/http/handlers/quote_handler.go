// README: Quote history handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"farecast/internal/modules/prediction"
	"farecast/internal/types"
)

// QuoteReader is the read side of the prediction service.
type QuoteReader interface {
	History(ctx context.Context, sessionID types.ID) ([]prediction.Quote, error)
	Quote(ctx context.Context, id types.ID) (*prediction.Quote, error)
}

type QuoteHandler struct {
	quotes QuoteReader
}

func NewQuoteHandler(quotes QuoteReader) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// List handles GET /api/sessions/:id/quotes. History outlives the session.
func (h *QuoteHandler) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	quotes, err := h.quotes.History(c.Request.Context(), id)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	if quotes == nil {
		quotes = []prediction.Quote{}
	}
	writeJSON(c, http.StatusOK, gin.H{"quotes": quotes})
}

// Get handles GET /api/quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	q, err := h.quotes.Quote(c.Request.Context(), id)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}
