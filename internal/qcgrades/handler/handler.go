package handler

import (
	"net/http"

	"warehouse_ops_backend/internal/qcgrades/service"
	"warehouse_ops_backend/internal/qcgrades/transport"
	"warehouse_ops_backend/platform/httpkit"
	"warehouse_ops_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for QC grade configuration.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new QC grade handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers QC grade routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PUT("", h.Replace)
}

func (h *Handler) List(c *gin.Context) {
	httpkit.OK(c, h.svc.List())
}

func (h *Handler) Replace(c *gin.Context) {
	var req transport.ReplaceGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Replace(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
