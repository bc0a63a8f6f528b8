// Package httpkit provides HTTP utilities including the warehouse workspace abstraction.
package httpkit

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"warehouse_ops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	// ContextWarehouseIDKey is the gin context key for the active warehouse.
	ContextWarehouseIDKey = "warehouseID"
	// ContextOperatorKey is the gin context key for the operator name.
	ContextOperatorKey = "operator"

	warehouseHeader = "X-Warehouse-ID"
	operatorHeader  = "X-Operator"
)

// Workspace is the ambient context a request runs in: the active warehouse
// and the operator entering data. It is set elsewhere (the page shell) and
// is read-only here.
type Workspace interface {
	WarehouseID() int64
	Operator() string
}

type workspace struct {
	warehouseID int64
	operator    string
}

func (w workspace) WarehouseID() int64 { return w.warehouseID }
func (w workspace) Operator() string   { return w.operator }

// NewWorkspace builds a Workspace value, mainly for tests and background jobs.
func NewWorkspace(warehouseID int64, operator string) Workspace {
	return workspace{warehouseID: warehouseID, operator: operator}
}

// WarehouseContext reads the active warehouse and operator from request headers.
// Requests without a valid positive warehouse ID are rejected.
func WarehouseContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(warehouseHeader))
		if raw == "" {
			raw = c.Query("warehouseId")
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "active warehouse is required"})
			return
		}
		operator := strings.TrimSpace(c.GetHeader(operatorHeader))

		c.Set(ContextWarehouseIDKey, id)
		c.Set(ContextOperatorKey, operator)

		ctx := context.WithValue(c.Request.Context(), logger.WarehouseIDKey, id)
		ctx = context.WithValue(ctx, logger.OperatorKey, operator)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetWorkspace extracts the Workspace from a Gin context.
// The second return value is false when WarehouseContext did not run.
func GetWorkspace(c *gin.Context) (Workspace, bool) {
	raw, ok := c.Get(ContextWarehouseIDKey)
	if !ok {
		return nil, false
	}
	id, ok := raw.(int64)
	if !ok || id <= 0 {
		return nil, false
	}
	return workspace{warehouseID: id, operator: c.GetString(ContextOperatorKey)}, true
}

// MustGetWorkspace extracts the Workspace or aborts with 400.
func MustGetWorkspace(c *gin.Context) Workspace {
	ws, ok := GetWorkspace(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "active warehouse is required"})
		return nil
	}
	return ws
}
