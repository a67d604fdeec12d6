package doctor

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/service/directory"
	apperrors "github.com/jwalitptl/opd-scheduler/pkg/errors"
	"github.com/jwalitptl/opd-scheduler/pkg/httputil"
)

type Handler struct {
	service *directory.Service
}

func NewHandler(service *directory.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.CreateDoctor)
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PUT("/:id", h.UpdateDoctor)
		doctors.DELETE("/:id", h.DeleteDoctor)
	}
}

type doctorRequest struct {
	Name        string   `json:"name" binding:"required"`
	Specialty   string   `json:"specialty"`
	Designation string   `json:"designation"`
	StartTime   string   `json:"start_time" binding:"omitempty,clocktime"`
	Keywords    []string `json:"keywords"`
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	doctor := &model.Doctor{
		Name:        req.Name,
		Specialty:   req.Specialty,
		Designation: req.Designation,
		StartTime:   req.StartTime,
		Keywords:    pq.StringArray(req.Keywords),
	}
	if err := h.service.Create(c.Request.Context(), doctor); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithCreated(c, doctor)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	doctor, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NotFound("doctor", err))
			return
		}
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	doctor, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NotFound("doctor", err))
			return
		}
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	doctor.Name = req.Name
	doctor.Specialty = req.Specialty
	doctor.Designation = req.Designation
	doctor.StartTime = req.StartTime
	doctor.Keywords = pq.StringArray(req.Keywords)

	if err := h.service.Update(c.Request.Context(), doctor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NotFound("doctor", err))
			return
		}
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, doctor)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.RespondWithError(c, apperrors.NotFound("doctor", err))
			return
		}
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}
