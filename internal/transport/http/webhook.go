package webhookhttp

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"tradewire/internal/dispatch"
	"tradewire/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 64 << 10

type webhookHandler struct {
	passphrase string
	submitter  Submitter
}

func fail(c *gin.Context, status int, msg string) {
	logger.Errorf("webhook rejected: %s", msg)
	c.JSON(status, gin.H{"code": "error", "message": msg})
}

// handle validates one inbound signal and queues it for execution. The
// passphrase is checked off a fast field peek before the full schema runs,
// so unauthenticated bodies get the cheapest possible rejection.
func (h *webhookHandler) handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable request body")
		return
	}
	if !gjson.ValidBytes(body) {
		fail(c, http.StatusUnprocessableEntity, "invalid input data")
		return
	}
	pass := gjson.GetBytes(body, "passphrase").String()
	if subtle.ConstantTimeCompare([]byte(pass), []byte(h.passphrase)) != 1 {
		fail(c, http.StatusUnauthorized, "invalid passphrase")
		return
	}

	var instance any
	if err := json.Unmarshal(body, &instance); err != nil {
		fail(c, http.StatusUnprocessableEntity, "invalid input data")
		return
	}
	if err := compiledSchema.Validate(instance); err != nil {
		logger.Errorf("webhook payload failed validation: %v", err)
		fail(c, http.StatusUnprocessableEntity, "invalid input data")
		return
	}

	var payload SignalPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		fail(c, http.StatusUnprocessableEntity, "invalid input data")
		return
	}

	kind := routeOf(payload.Strategy.OrderID)
	if kind == routeUnknown {
		fail(c, http.StatusBadRequest, "invalid strategy order_id prefix")
		return
	}
	intent, err := payload.ToIntent(kind)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.submitter.Submit(intent); err != nil {
		if errors.Is(err, dispatch.ErrQueueFull) || errors.Is(err, dispatch.ErrStopped) {
			fail(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "internal server error")
		return
	}

	msg := "switch trade accepted"
	if kind == routeExit {
		msg = "exit trade accepted"
	}
	logger.Infof("webhook accepted: %s %s signal=%q", intent.Symbol, intent.Side, intent.SignalID)
	c.JSON(http.StatusAccepted, gin.H{"code": "success", "message": msg})
}
