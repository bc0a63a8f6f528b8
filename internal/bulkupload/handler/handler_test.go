package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"warehouse_ops_backend/internal/bulkupload/service"
	"warehouse_ops_backend/internal/bulkupload/transport"
	entryservice "warehouse_ops_backend/internal/entries/service"
	entrytransport "warehouse_ops_backend/internal/entries/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type noOwners struct{}

func (noOwners) Owners(context.Context, profile.Kind, []string) (map[string]int64, error) {
	return map[string]int64{}, nil
}

type recordingBatches struct{ calls int }

func (r *recordingBatches) SubmitBatch(_ context.Context, _ profile.Profile, in entryservice.BatchInput) (entrytransport.SubmitBatchResponse, error) {
	r.calls++
	return entrytransport.SubmitBatchResponse{SuccessCount: len(in.Rows), BatchID: uuid.New()}, nil
}

func newEngine(batches *recordingBatches, maxFileSize int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.New(service.Config{FailOpen: true}, noOwners{}, batches, nil, nil, nil)
	engine := gin.New()
	group := engine.Group("/uploads", httpkit.WarehouseContext())
	New(svc, maxFileSize).RegisterRoutes(group)
	return engine
}

func multipartBody(t *testing.T, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(fileField, "sheet.xlsx")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		_, _ = part.Write(file)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func sheetBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	_ = f.SetCellValue("Sheet1", "A1", "wsn")
	_ = f.SetCellValue("Sheet1", "A2", "w-1")
	_ = f.SetCellValue("Sheet1", "A3", "w-2")
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func post(engine *gin.Engine, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Warehouse-ID", "3")
	req.Header.Set("X-Operator", "ravi")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestUploadPreview(t *testing.T) {
	batches := &recordingBatches{}
	engine := newEngine(batches, 0)

	body, ct := multipartBody(t, sheetBytes(t), nil)
	rec := post(engine, "/uploads/inbound", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Summary.Clean != 2 || resp.Committed {
		t.Fatalf("unexpected preview %+v", resp)
	}
	if batches.calls != 0 {
		t.Fatal("preview must not submit")
	}
}

func TestUploadCommit(t *testing.T) {
	batches := &recordingBatches{}
	engine := newEngine(batches, 0)

	body, ct := multipartBody(t, sheetBytes(t), map[string]string{"inbound_date": "2026-10-16", "vehicle_no": "KA01"})
	rec := post(engine, "/uploads/inbound?commit=true", body, ct)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if batches.calls != 1 {
		t.Fatalf("expected one batch submit, got %d", batches.calls)
	}
}

func TestUploadRejectsBadRequests(t *testing.T) {
	engine := newEngine(&recordingBatches{}, 10)

	body, ct := multipartBody(t, nil, map[string]string{"note": "x"})
	if rec := post(engine, "/uploads/inbound", body, ct); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", rec.Code)
	}

	body, ct = multipartBody(t, sheetBytes(t), nil)
	if rec := post(engine, "/uploads/inbound", body, ct); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized file: expected 413, got %d", rec.Code)
	}

	body, ct = multipartBody(t, sheetBytes(t), nil)
	if rec := post(engine, "/uploads/unknown", body, ct); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown kind: expected 404, got %d", rec.Code)
	}
}
