package ops

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/opd-scheduler/pkg/httputil"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
)

// BotStatus reports the dispatch loop's health for the ops endpoint.
type BotStatus interface {
	Status() map[string]interface{}
}

type Handler struct {
	log *logger.Logger
	bot BotStatus
}

func NewHandler(log *logger.Logger, bot BotStatus) *Handler {
	return &Handler{log: log, bot: bot}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	ops := r.Group("/ops")
	{
		ops.GET("/logs", h.LogTail)
		ops.GET("/bot", h.BotStatus)
	}
}

// LogTail returns the most recent log lines from the in-memory ring.
func (h *Handler) LogTail(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{"lines": h.log.Recent()})
}

func (h *Handler) BotStatus(c *gin.Context) {
	if h.bot == nil {
		httputil.RespondWithSuccess(c, gin.H{"enabled": false})
		return
	}
	httputil.RespondWithSuccess(c, h.bot.Status())
}
