package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"warehouse_ops_backend/internal/grid/service"
	"warehouse_ops_backend/internal/grid/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/platform/httpkit"
	"warehouse_ops_backend/platform/logger"
	"warehouse_ops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ownersByKey map[string]int64

func (o ownersByKey) LookupOwner(_ context.Context, _ profile.Kind, key string) (reconcile.Owner, error) {
	if id, ok := o[key]; ok {
		return reconcile.Owner{Found: true, WarehouseID: id}, nil
	}
	return reconcile.Owner{}, nil
}

type noMaster struct{}

func (noMaster) FetchMasterData(context.Context, string) (reconcile.MasterRecord, error) {
	return reconcile.MasterRecord{}, nil
}

type countingSubmitter struct{ calls int }

func (s *countingSubmitter) SubmitBatch(_ context.Context, req reconcile.BatchRequest) (reconcile.BatchResult, error) {
	s.calls++
	return reconcile.BatchResult{SuccessCount: len(req.Rows), BatchID: uuid.New()}, nil
}

type testServer struct {
	engine    *gin.Engine
	svc       *service.Service
	submitter *countingSubmitter
}

func newTestServer(t *testing.T, owners ownersByKey) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	submitter := &countingSubmitter{}
	svc := service.New(service.Config{
		InitialRows:   2,
		Debounce:      time.Millisecond,
		LookupTimeout: time.Second,
		FailOpen:      true,
		SessionTTL:    time.Hour,
	}, service.Deps{
		Owners:     owners,
		MasterData: noMaster{},
		Submitter:  submitter,
		Logger:     logger.Discard(),
	})
	t.Cleanup(svc.Shutdown)

	engine := gin.New()
	group := engine.Group("/grids")
	group.Use(httpkit.WarehouseContext())
	New(svc, validator.New()).RegisterRoutes(group)
	return &testServer{engine: engine, svc: svc, submitter: submitter}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Warehouse-ID", "1")
	req.Header.Set("X-Operator", "asha")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) open(t *testing.T, kind string) transport.GridResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/grids", `{"kind":"`+kind+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var grid transport.GridResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}
	return grid
}

func waitForStatus(t *testing.T, s *testServer, gridID, rowID uuid.UUID, want reconcile.RowStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		grid, err := s.svc.Get(gridID, 1)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		for _, row := range grid.Rows {
			if row.ID == rowID && row.Status == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("row %s never reached status %s", rowID, want)
}

func TestOpenRequiresWarehouse(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/grids", strings.NewReader(`{"kind":"inbound"}`))
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/grids", `{"kind":"returns"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCommitIdentifierFlow(t *testing.T) {
	s := newTestServer(t, ownersByKey{"TAKEN": 2})
	grid := s.open(t, "inbound")
	path := "/grids/" + grid.ID.String() + "/rows/"

	rec := s.do(t, http.MethodPut, path+grid.Rows[0].ID.String()+"/identifier", `{"value":" taken "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("commit: expected 200, got %d", rec.Code)
	}
	var outcome reconcile.Outcome
	_ = json.Unmarshal(rec.Body.Bytes(), &outcome)
	if outcome.Result != reconcile.ResultPending {
		t.Fatalf("expected pending, got %+v", outcome)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		current, _ := s.svc.Get(grid.ID, 1)
		if !current.CanSubmit {
			if len(current.Sets.CrossWarehouse) != 1 || current.Sets.CrossWarehouse[0] != "TAKEN" {
				t.Fatalf("unexpected sets %+v", current.Sets)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cross-warehouse conflict never recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = s.do(t, http.MethodPost, "/grids/"+grid.ID.String()+"/submit", `{"commonFields":{"inbound_date":"2026-10-16","vehicle_no":"KA01"}}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected blocked submit, got %d", rec.Code)
	}
	if s.submitter.calls != 0 {
		t.Fatal("submitter must not be called while blocked")
	}
}

func TestSubmitAcceptedGrid(t *testing.T) {
	s := newTestServer(t, nil)
	grid := s.open(t, "inbound")
	rowID := grid.Rows[0].ID

	rec := s.do(t, http.MethodPut, "/grids/"+grid.ID.String()+"/rows/"+rowID.String()+"/identifier", `{"value":"fresh1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("commit: %d", rec.Code)
	}
	waitForStatus(t, s, grid.ID, rowID, reconcile.RowAccepted)

	rec = s.do(t, http.MethodPut, "/grids/"+grid.ID.String()+"/rows/"+rowID.String()+"/fields", `{"fields":{"rack_no":"R-9"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/grids/"+grid.ID.String()+"/submit", `{"commonFields":{"inbound_date":"2026-10-16","vehicle_no":"KA01"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result reconcile.BatchResult
	_ = json.Unmarshal(rec.Body.Bytes(), &result)
	if result.SuccessCount != 1 || s.submitter.calls != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRowRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	grid := s.open(t, "outbound")
	base := "/grids/" + grid.ID.String()

	rec := s.do(t, http.MethodPost, base+"/rows", `{"count":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("append: expected 201, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, base+"/rows", `{"count":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("append zero: expected 400, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodDelete, base+"/rows/"+grid.Rows[0].ID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodDelete, base+"/rows/"+grid.Rows[0].ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete again: expected 404, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodDelete, base+"/rows/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad row id: expected 400, got %d", rec.Code)
	}

	current, _ := s.svc.Get(grid.ID, 1)
	if len(current.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(current.Rows))
	}
}

func TestUnknownGrid(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/grids/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/grids/nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEventsWithoutStreamingIsUnavailable(t *testing.T) {
	s := newTestServer(t, nil)
	grid := s.open(t, "qc")
	rec := s.do(t, http.MethodGet, "/grids/"+grid.ID.String()+"/events", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
