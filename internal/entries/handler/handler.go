package handler

import (
	"net/http"

	"warehouse_ops_backend/internal/entries/service"
	"warehouse_ops_backend/internal/entries/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/platform/httpkit"
	"warehouse_ops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for entries and batches.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new entries handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers entry routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:kind", h.List)
	rg.POST("/:kind", h.Create)
	rg.GET("/:kind/owner/:wsn", h.LookupOwner)
}

// RegisterBatchRoutes registers batch management routes.
func (h *Handler) RegisterBatchRoutes(rg *gin.RouterGroup) {
	rg.GET("/:kind", h.ListBatches)
	rg.POST("/:kind", h.SubmitBatch)
	rg.DELETE("/:kind/:batchId", h.DeleteBatch)
}

func (h *Handler) List(c *gin.Context) {
	p, ok := mustGetProfile(c)
	if !ok {
		return
	}
	var req transport.ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
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

	result, err := h.svc.List(c.Request.Context(), p.Kind, ws.WarehouseID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	p, ok := mustGetProfile(c)
	if !ok {
		return
	}
	var req transport.CreateEntryRequest
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

	result, err := h.svc.Create(c.Request.Context(), p, ws.WarehouseID(), ws.Operator(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) LookupOwner(c *gin.Context) {
	p, ok := mustGetProfile(c)
	if !ok {
		return
	}
	if err := h.val.Var(c.Param("wsn"), "wsn"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	ws := httpkit.MustGetWorkspace(c)
	if ws == nil {
		return
	}

	result, err := h.svc.LookupOwner(c.Request.Context(), p.Kind, ws.WarehouseID(), c.Param("wsn"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SubmitBatch(c *gin.Context) {
	p, ok := mustGetProfile(c)
	if !ok {
		return
	}
	var req transport.SubmitBatchRequest
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

	rows := make([]service.BatchRow, len(req.Rows))
	for i, r := range req.Rows {
		rows[i] = service.BatchRow{WSN: r.WSN, Fields: r.Fields, Product: r.Product}
	}
	result, err := h.svc.SubmitBatch(c.Request.Context(), p, service.BatchInput{
		Kind:         p.Kind,
		WarehouseID:  ws.WarehouseID(),
		Operator:     ws.Operator(),
		Source:       service.SourceGrid,
		Rows:         rows,
		CommonFields: req.CommonFields,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ListBatches(c *gin.Context) {
	p, ok := mustGetProfile(c)
	if !ok {
		return
	}
	var req transport.ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
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

	result, err := h.svc.ListBatches(c.Request.Context(), p.Kind, ws.WarehouseID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DeleteBatch(c *gin.Context) {
	p, ok := mustGetProfile(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	ws := httpkit.MustGetWorkspace(c)
	if ws == nil {
		return
	}

	result, err := h.svc.DeleteBatch(c.Request.Context(), p.Kind, ws.WarehouseID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func mustGetProfile(c *gin.Context) (profile.Profile, bool) {
	p, err := profile.Get(c.Param("kind"))
	if httpkit.HandleError(c, err) {
		return profile.Profile{}, false
	}
	return p, true
}
