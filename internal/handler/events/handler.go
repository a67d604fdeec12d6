package events

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/opd-scheduler/pkg/event"
)

type Handler struct {
	broker *event.Broker
}

func NewHandler(broker *event.Broker) *Handler {
	return &Handler{broker: broker}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.Stream)
}

// Stream serves change notifications over SSE until the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	ch, cancel := h.broker.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Payload))
			return true
		}
	})
}
