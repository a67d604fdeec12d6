package closure

import (
	"github.com/gin-gonic/gin"

	closureService "github.com/jwalitptl/opd-scheduler/internal/service/closure"
	apperrors "github.com/jwalitptl/opd-scheduler/pkg/errors"
	"github.com/jwalitptl/opd-scheduler/pkg/httputil"
)

type Handler struct {
	service *closureService.Service
}

func NewHandler(service *closureService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	closures := r.Group("/closures")
	{
		closures.GET("", h.ListClosures)
		closures.GET("/:date", h.GetClosure)
		closures.POST("", h.RecordClosure)
	}
}

type recordClosureRequest struct {
	Date   string `json:"date" binding:"required,isodate"`
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) ListClosures(c *gin.Context) {
	closures, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, closures)
}

func (h *Handler) GetClosure(c *gin.Context) {
	closure, err := h.service.Get(c.Request.Context(), c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	if closure == nil {
		httputil.RespondWithError(c, apperrors.NotFound("closure", nil))
		return
	}
	httputil.RespondWithSuccess(c, closure)
}

func (h *Handler) RecordClosure(c *gin.Context) {
	var req recordClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	added, err := h.service.Apply(c.Request.Context(), req.Date, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithCreated(c, gin.H{"date": req.Date, "added": added})
}
