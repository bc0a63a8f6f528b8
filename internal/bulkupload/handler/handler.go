package handler

import (
	"io"
	"net/http"

	"warehouse_ops_backend/internal/adapters/storage"
	"warehouse_ops_backend/internal/bulkupload/service"
	"warehouse_ops_backend/internal/bulkupload/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"
	fileField         = "file"
)

// Handler handles spreadsheet upload requests.
type Handler struct {
	svc         *service.Service
	maxFileSize int64
}

// New creates a new upload handler. maxFileSize <= 0 disables the size cap.
func New(svc *service.Service, maxFileSize int64) *Handler {
	return &Handler{svc: svc, maxFileSize: maxFileSize}
}

// RegisterRoutes registers upload routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limiter ...gin.HandlerFunc) {
	rg.POST("/:kind", append(limiter, h.Upload)...)
}

func (h *Handler) Upload(c *gin.Context) {
	p, err := profile.Get(c.Param("kind"))
	if httpkit.HandleError(c, err) {
		return
	}
	var query transport.UploadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	ws := httpkit.MustGetWorkspace(c)
	if ws == nil {
		return
	}

	fh, err := c.FormFile(fileField)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if err := storage.ValidateContentType(contentType); err != nil {
		httpkit.Error(c, http.StatusUnsupportedMediaType, err.Error(), nil)
		return
	}
	if err := storage.ValidateFileSize(fh.Size, h.maxFileSize); err != nil {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, err.Error(), nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unable to read file", nil)
		return
	}
	defer func() { _ = f.Close() }()
	body, err := io.ReadAll(f)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unable to read file", nil)
		return
	}

	common := make(map[string]string, len(p.CommonFields))
	for _, field := range p.CommonFields {
		if v, ok := c.GetPostForm(field); ok {
			common[field] = v
		}
	}

	result, err := h.svc.Process(c.Request.Context(), p, service.Upload{
		WarehouseID:  ws.WarehouseID(),
		Operator:     ws.Operator(),
		FileName:     fh.Filename,
		ContentType:  contentType,
		Body:         body,
		CommonFields: common,
		Commit:       query.Commit,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	status := http.StatusOK
	if result.Committed {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, result)
}
