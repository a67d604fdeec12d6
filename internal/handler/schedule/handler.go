package schedule

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	scheduleService "github.com/jwalitptl/opd-scheduler/internal/service/schedule"
	apperrors "github.com/jwalitptl/opd-scheduler/pkg/errors"
	"github.com/jwalitptl/opd-scheduler/pkg/httputil"
)

type Handler struct {
	service     *scheduleService.Service
	displayDays int
}

func NewHandler(service *scheduleService.Service, displayDays int) *Handler {
	if displayDays <= 0 {
		displayDays = 7
	}
	return &Handler{service: service, displayDays: displayDays}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/schedule", h.GetUpcoming)
	r.GET("/schedule/:date", h.GetDay)

	doctors := r.Group("/doctors/:id/schedule")
	{
		doctors.GET("/:date", h.GetEntry)
		doctors.PATCH("/:date", h.PatchEntry)
		doctors.DELETE("/:date", h.ClearDate)
		doctors.DELETE("/:date/fields/:field", h.RemoveField)
	}
}

// RegisterAdminRoutes wires the destructive endpoints behind admin auth.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/schedule/clear", h.BulkClear)
}

type dateURI struct {
	Date string `uri:"date" binding:"required,isodate"`
}

func (h *Handler) GetUpcoming(c *gin.Context) {
	days := h.displayDays
	if q := c.Query("days"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 31 {
			days = n
		}
	}
	views, err := h.service.Flatten(c.Request.Context(), days)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, views)
}

func (h *Handler) GetDay(c *gin.Context) {
	var uri dateURI
	if err := c.ShouldBindUri(&uri); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid date", err))
		return
	}
	days, err := h.service.HydrateForDate(c.Request.Context(), uri.Date)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, days)
}

func (h *Handler) GetEntry(c *gin.Context) {
	id, dateISO, ok := h.entryParams(c)
	if !ok {
		return
	}
	entry, err := h.service.Entry(c.Request.Context(), id, dateISO)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"doctor_id": id,
		"for_date":  dateISO,
		"entry":     entry,
	})
}

func (h *Handler) PatchEntry(c *gin.Context) {
	id, dateISO, ok := h.entryParams(c)
	if !ok {
		return
	}
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patch", err))
		return
	}
	patch := make(model.Patch, len(raw))
	for k, v := range raw {
		patch[model.Field(k)] = v
	}

	changed, err := h.service.Apply(c.Request.Context(), id, dateISO, patch)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"changed": changed})
}

func (h *Handler) ClearDate(c *gin.Context) {
	id, dateISO, ok := h.entryParams(c)
	if !ok {
		return
	}
	if err := h.service.ClearDate(c.Request.Context(), id, dateISO); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"cleared": true})
}

func (h *Handler) RemoveField(c *gin.Context) {
	id, dateISO, ok := h.entryParams(c)
	if !ok {
		return
	}
	field := model.Field(c.Param("field"))
	if !model.PerDateFields[field] {
		httputil.RespondWithError(c, apperrors.BadRequest("unknown field", nil))
		return
	}
	removed, err := h.service.RemoveField(c.Request.Context(), id, dateISO, field)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"removed": removed})
}

func (h *Handler) BulkClear(c *gin.Context) {
	n, err := h.service.BulkClear(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"cleared_entries": n})
}

func (h *Handler) entryParams(c *gin.Context) (uuid.UUID, string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return uuid.Nil, "", false
	}
	var uri dateURI
	if err := c.ShouldBindUri(&uri); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid date", err))
		return uuid.Nil, "", false
	}
	return id, uri.Date, true
}
