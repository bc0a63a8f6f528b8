package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"warehouse_ops_backend/internal/bulkupload/transport"
	entryservice "warehouse_ops_backend/internal/entries/service"
	entrytransport "warehouse_ops_backend/internal/entries/transport"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type fakeOwners struct {
	owners  map[string]int64
	err     error
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeOwners) Owners(_ context.Context, _ profile.Kind, keys []string) (map[string]int64, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]int64)
	for _, k := range keys {
		if id, ok := f.owners[k]; ok {
			out[k] = id
		}
	}
	return out, nil
}

type fakeBatches struct {
	mu sync.Mutex
	in []entryservice.BatchInput
}

func (f *fakeBatches) SubmitBatch(_ context.Context, _ profile.Profile, in entryservice.BatchInput) (entrytransport.SubmitBatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.in = append(f.in, in)
	return entrytransport.SubmitBatchResponse{SuccessCount: len(in.Rows), BatchID: uuid.New()}, nil
}

type fakeStore struct {
	bucket, folder, name string
	size                 int64
	err                  error
}

func (f *fakeStore) UploadFile(_ context.Context, bucket, folder, fileName, _ string, r io.Reader, size int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.bucket, f.folder, f.name, f.size = bucket, folder, fileName, size
	_, _ = io.Copy(io.Discard, r)
	return folder + "/key-" + fileName, nil
}

func (f *fakeStore) EnsureBucketExists(context.Context, string) error { return nil }
func (f *fakeStore) ValidateContentType(string) error                 { return nil }
func (f *fakeStore) ValidateFileSize(int64) error                     { return nil }

type gradeSet map[string]bool

func (g gradeSet) ValidGrade(code string) bool { return g[code] }

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func mustProfile(t *testing.T, kind string) profile.Profile {
	t.Helper()
	p, err := profile.Get(kind)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return p
}

func statuses(rows []transport.RowPreview) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Status
	}
	return out
}

func TestProcessClassifiesRowsLikeTheGrid(t *testing.T) {
	owners := &fakeOwners{owners: map[string]int64{"SAME1": 7, "CROSS1": 9}}
	svc := New(Config{LookupConcurrency: 2, ChunkSize: 2, FailOpen: true}, owners, &fakeBatches{}, nil, nil, nil)

	body := workbook(t,
		[]interface{}{"wsn", "rack_no"},
		[]interface{}{"dup", "A"},
		[]interface{}{"", "B"},
		[]interface{}{"DUP ", "C"},
		[]interface{}{"same1", "D"},
		[]interface{}{"cross1", "E"},
		[]interface{}{"fresh", "F"},
	)

	resp, err := svc.Process(context.Background(), mustProfile(t, "inbound"), Upload{WarehouseID: 7, Body: body})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	want := []string{
		transport.StatusGridDuplicate,
		transport.StatusEmpty,
		transport.StatusGridDuplicate,
		transport.StatusSameWarehouse,
		transport.StatusCrossWarehouse,
		transport.StatusClean,
	}
	got := statuses(resp.Rows)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: expected %s, got %s (all %v)", i, want[i], got[i], got)
		}
	}
	if resp.Rows[4].OwnerWarehouseID == nil || *resp.Rows[4].OwnerWarehouseID != 9 {
		t.Fatalf("expected owner warehouse 9, got %+v", resp.Rows[4])
	}
	if resp.Rows[4].Message != "WSN CROSS1 is already received in warehouse 9" {
		t.Fatalf("unexpected message %q", resp.Rows[4].Message)
	}
	if resp.Summary.Clean != 1 || resp.Summary.GridDuplicate != 2 || resp.Summary.Total != 6 {
		t.Fatalf("unexpected summary %+v", resp.Summary)
	}
	if resp.Committed {
		t.Fatal("preview must not commit")
	}
	if calls := owners.calls.Load(); calls != 2 {
		t.Fatalf("expected 3 keys looked up in 2 chunks, got %d calls", calls)
	}
}

func TestProcessBoundsLookupConcurrency(t *testing.T) {
	owners := &fakeOwners{owners: map[string]int64{}}
	svc := New(Config{LookupConcurrency: 2, ChunkSize: 1, FailOpen: true}, owners, &fakeBatches{}, nil, nil, nil)

	rows := [][]interface{}{{"wsn"}}
	for _, k := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		rows = append(rows, []interface{}{k})
	}
	if _, err := svc.Process(context.Background(), mustProfile(t, "inbound"), Upload{WarehouseID: 1, Body: workbook(t, rows...)}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if owners.calls.Load() != 8 {
		t.Fatalf("expected 8 lookups, got %d", owners.calls.Load())
	}
	if owners.maxSeen.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent lookups, saw %d", owners.maxSeen.Load())
	}
}

func TestProcessLookupFailure(t *testing.T) {
	body := workbook(t, []interface{}{"wsn"}, []interface{}{"A1"})
	p := mustProfile(t, "inbound")

	open := New(Config{FailOpen: true}, &fakeOwners{err: errors.New("db down")}, &fakeBatches{}, nil, nil, nil)
	resp, err := open.Process(context.Background(), p, Upload{WarehouseID: 1, Body: body})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if resp.Rows[0].Status != transport.StatusClean {
		t.Fatalf("fail-open should treat the row as clean, got %s", resp.Rows[0].Status)
	}

	closed := New(Config{FailOpen: false}, &fakeOwners{err: errors.New("db down")}, &fakeBatches{}, nil, nil, nil)
	resp, err = closed.Process(context.Background(), p, Upload{WarehouseID: 1, Body: body})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if resp.Rows[0].Status != transport.StatusLookupFailed || resp.Summary.LookupFailed != 1 {
		t.Fatalf("expected lookup-failed, got %+v", resp.Rows[0])
	}
}

func TestProcessCommitArchivesAndSubmitsCleanRows(t *testing.T) {
	batches := &fakeBatches{}
	store := &fakeStore{}
	svc := New(Config{FailOpen: true, Bucket: "uploads"}, &fakeOwners{owners: map[string]int64{"TAKEN": 3}}, batches, store, nil, nil)

	body := workbook(t,
		[]interface{}{"WSN", "Rack No", "Product Title"},
		[]interface{}{"a1", "R1", "Kettle"},
		[]interface{}{"taken", "R2", ""},
		[]interface{}{"b2", "", ""},
	)
	resp, err := svc.Process(context.Background(), mustProfile(t, "inbound"), Upload{
		WarehouseID:  5,
		Operator:     "ana",
		FileName:     "receipts.xlsx",
		ContentType:  "application/octet-stream",
		Body:         body,
		CommonFields: map[string]string{"inbound_date": "2026-10-16", "vehicle_no": "KA01"},
		Commit:       true,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !resp.Committed || resp.Batch == nil || resp.Batch.SuccessCount != 2 {
		t.Fatalf("expected committed batch of 2, got %+v", resp)
	}
	if store.bucket != "uploads" || store.folder != "inbound/5" || store.size != int64(len(body)) {
		t.Fatalf("unexpected archive call %+v", store)
	}
	if resp.UploadKey == nil || *resp.UploadKey != "inbound/5/key-receipts.xlsx" {
		t.Fatalf("unexpected upload key %v", resp.UploadKey)
	}

	if len(batches.in) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches.in))
	}
	in := batches.in[0]
	if in.Source != entryservice.SourceUpload || in.UploadKey == nil || in.Operator != "ana" {
		t.Fatalf("unexpected batch input %+v", in)
	}
	if len(in.Rows) != 2 || in.Rows[0].WSN != "A1" || in.Rows[1].WSN != "B2" {
		t.Fatalf("expected clean rows A1 and B2, got %+v", in.Rows)
	}
	if in.Rows[0].Fields["rack_no"] != "R1" || in.Rows[0].Product["product_title"] != "Kettle" {
		t.Fatalf("unexpected row payload %+v", in.Rows[0])
	}
}

func TestProcessCommitWithoutCleanRows(t *testing.T) {
	batches := &fakeBatches{}
	svc := New(Config{FailOpen: true}, &fakeOwners{owners: map[string]int64{"A": 1}}, batches, nil, nil, nil)

	body := workbook(t, []interface{}{"wsn"}, []interface{}{"a"})
	_, err := svc.Process(context.Background(), mustProfile(t, "inbound"), Upload{WarehouseID: 1, Body: body, Commit: true})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(batches.in) != 0 {
		t.Fatal("nothing should be submitted")
	}
}

func TestProcessArchiveFailureAbortsCommit(t *testing.T) {
	batches := &fakeBatches{}
	svc := New(Config{FailOpen: true, Bucket: "uploads"}, &fakeOwners{}, batches, &fakeStore{err: errors.New("s3 down")}, nil, nil)

	body := workbook(t, []interface{}{"wsn"}, []interface{}{"a"})
	_, err := svc.Process(context.Background(), mustProfile(t, "inbound"), Upload{WarehouseID: 1, Body: body, Commit: true})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if len(batches.in) != 0 {
		t.Fatal("batch must not be submitted when archiving fails")
	}
}

func TestProcessRejectsUnknownGrades(t *testing.T) {
	svc := New(Config{FailOpen: true}, &fakeOwners{}, &fakeBatches{}, nil, gradeSet{"A": true}, nil)

	body := workbook(t, []interface{}{"wsn", "grade"}, []interface{}{"w1", "A"}, []interface{}{"w2", "Z"})
	resp, err := svc.Process(context.Background(), mustProfile(t, "qc"), Upload{WarehouseID: 1, Body: body})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if resp.Rows[0].Status != transport.StatusClean || resp.Rows[1].Status != transport.StatusInvalid {
		t.Fatalf("unexpected statuses %v", statuses(resp.Rows))
	}
}
