package message

import (
	"context"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/opd-scheduler/pkg/errors"
	"github.com/jwalitptl/opd-scheduler/pkg/httputil"
)

// Interpreter is the free-text message pipeline behind the webhook.
type Interpreter interface {
	Interpret(ctx context.Context, text, senderID string) bool
}

type Handler struct {
	interpreter Interpreter
}

func NewHandler(interpreter Interpreter) *Handler {
	return &Handler{interpreter: interpreter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/messages", h.PostMessage)
}

type postMessageRequest struct {
	Text     string `json:"text" binding:"required"`
	SenderID string `json:"sender_id"`
}

// PostMessage feeds one inbound message through the interpreter. The
// response reports only whether any shape handled it; parse failures are
// silent by design.
func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	handled := h.interpreter.Interpret(c.Request.Context(), req.Text, req.SenderID)
	httputil.RespondWithSuccess(c, gin.H{"handled": handled})
}
