package webhookhttp

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradewire/internal/logger"

	"github.com/gin-gonic/gin"
)

const defaultJournalLimit = 50

// journalHandler answers operator queries about what the engine did to an
// instrument, guarded by the same shared passphrase as the webhook.
type journalHandler struct {
	passphrase string
	events     EventReader
}

func (h *journalHandler) recent(c *gin.Context) {
	pass := c.GetHeader("X-Passphrase")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(h.passphrase)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "error", "message": "invalid passphrase"})
		return
	}
	sym := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	limit := defaultJournalLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "error", "message": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events, err := h.events.Recent(c.Request.Context(), sym, limit)
	if err != nil {
		logger.Errorf("journal query for %s failed: %v", sym, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "error", "message": "journal unavailable"})
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, evt := range events {
		out = append(out, gin.H{
			"time":      evt.Time.UTC().Format(time.RFC3339),
			"symbol":    evt.Symbol,
			"order_id":  evt.OrderID,
			"client_id": evt.ClientID,
			"role":      evt.Role,
			"event":     evt.Event,
			"detail":    evt.Detail,
		})
	}
	c.JSON(http.StatusOK, gin.H{"code": "success", "symbol": sym, "events": out})
}
