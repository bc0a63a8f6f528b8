package handler

import (
	"net/http"

	"warehouse_ops_backend/internal/grid/service"
	"warehouse_ops_backend/internal/grid/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/platform/httpkit"
	"warehouse_ops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidGridID    = "invalid grid id"
	msgInvalidRowID     = "invalid row id"
)

// Handler handles HTTP requests for grid sessions.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new grid handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers grid routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Open)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Close)
	rg.GET("/:id/events", h.Events)
	rg.POST("/:id/rows", h.AppendRows)
	rg.PUT("/:id/rows/:rowId/identifier", h.CommitIdentifier)
	rg.PUT("/:id/rows/:rowId/fields", h.EditFields)
	rg.DELETE("/:id/rows/:rowId", h.DeleteRow)
	rg.POST("/:id/submit", h.Submit)
}

func (h *Handler) Open(c *gin.Context) {
	var req transport.OpenGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	ws := httpkit.MustGetWorkspace(c)
	if ws == nil {
		return
	}

	result, err := h.svc.Open(profile.Kind(req.Kind), ws.WarehouseID(), ws.Operator())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	result, err := h.svc.Get(id, ws.WarehouseID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Close(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Close(id, ws.WarehouseID())) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Events(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	httpkit.HandleError(c, h.svc.Stream(c, id, ws.WarehouseID()))
}

func (h *Handler) AppendRows(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	var req transport.AppendRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AppendRows(id, ws.WarehouseID(), req.Count)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) CommitIdentifier(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	rowID, ok := rowParam(c)
	if !ok {
		return
	}
	var req transport.CommitIdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CommitIdentifier(id, ws.WarehouseID(), rowID, req.Value)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) EditFields(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	rowID, ok := rowParam(c)
	if !ok {
		return
	}
	var req transport.EditFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.EditFields(id, ws.WarehouseID(), rowID, req.Fields)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DeleteRow(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	rowID, ok := rowParam(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteRow(id, ws.WarehouseID(), rowID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Submit(c *gin.Context) {
	id, ws, ok := gridScope(c)
	if !ok {
		return
	}
	var req transport.SubmitGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), id, ws.WarehouseID(), req.CommonFields)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func gridScope(c *gin.Context) (uuid.UUID, httpkit.Workspace, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidGridID, nil)
		return uuid.Nil, nil, false
	}
	ws := httpkit.MustGetWorkspace(c)
	if ws == nil {
		return uuid.Nil, nil, false
	}
	return id, ws, true
}

func rowParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("rowId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRowID, nil)
		return uuid.Nil, false
	}
	return id, true
}
