package auth

import (
	"github.com/gin-gonic/gin"

	authService "github.com/jwalitptl/opd-scheduler/internal/service/auth"
	apperrors "github.com/jwalitptl/opd-scheduler/pkg/errors"
	"github.com/jwalitptl/opd-scheduler/pkg/httputil"
)

type Handler struct {
	service *authService.Service
}

func NewHandler(service *authService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

// RegisterAdminRoutes wires account management behind admin auth.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/users", h.CreateUser)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createUserRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=ADMIN PR MEDICAL_ADMIN VIEW_ONLY"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	token, user, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), req.Username, req.Name, req.Password, req.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}
