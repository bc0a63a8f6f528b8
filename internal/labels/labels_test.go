package labels

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/internal/scheduler"
	"warehouse_ops_backend/platform/logger"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

type memJobs struct {
	jobs []Job
}

func (m *memJobs) RecordJob(_ context.Context, job Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

type failingSink struct{}

func (failingSink) Send(context.Context, scheduler.LabelPrintPayload, []byte) error {
	return errors.New("printer offline")
}

type queueRecorder struct {
	got []scheduler.LabelPrintPayload
}

func (q *queueRecorder) EnqueueLabelPrint(_ context.Context, p scheduler.LabelPrintPayload) error {
	q.got = append(q.got, p)
	return nil
}

func TestRenderProducesPNG(t *testing.T) {
	png, err := Render(scheduler.LabelPrintPayload{Kind: "inbound", WSN: "ABC1", WarehouseID: 2})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatal("expected PNG output")
	}
}

func TestContent(t *testing.T) {
	got := Content(scheduler.LabelPrintPayload{Kind: "qc", WSN: "ABC1", WarehouseID: 12, Title: "Kettle"})
	if got != "ABC1|qc|12|Kettle" {
		t.Fatalf("unexpected content %q", got)
	}
	if got := Content(scheduler.LabelPrintPayload{Kind: "qc", WSN: "ABC1", WarehouseID: 12}); strings.HasSuffix(got, "|") {
		t.Fatalf("unexpected trailing separator in %q", got)
	}
}

func TestProcessorRecordsRenderedJob(t *testing.T) {
	jobs := &memJobs{}
	p := NewProcessor(jobs, nil, logger.Discard())

	if err := p.HandleLabelPrint(context.Background(), scheduler.LabelPrintPayload{Kind: "inbound", WSN: "ABC1", WarehouseID: 2}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(jobs.jobs) != 1 || jobs.jobs[0].Status != StatusRendered || jobs.jobs[0].PNGBytes == 0 {
		t.Fatalf("unexpected jobs %+v", jobs.jobs)
	}
}

func TestProcessorRecordsSinkFailure(t *testing.T) {
	jobs := &memJobs{}
	p := NewProcessor(jobs, failingSink{}, logger.Discard())

	if err := p.HandleLabelPrint(context.Background(), scheduler.LabelPrintPayload{Kind: "inbound", WSN: "ABC1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	job := jobs.jobs[0]
	if job.Status != StatusFailed || job.Error == nil || *job.Error != "printer offline" {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestPrinterQueuesPayload(t *testing.T) {
	q := &queueRecorder{}
	err := NewPrinter(q).PrintLabel(context.Background(), reconcile.LabelPayload{
		Kind: profile.KindOutbound, WSN: "XYZ9", WarehouseID: 4, Operator: "asha", Title: "Fan",
	})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if len(q.got) != 1 || q.got[0].Kind != "outbound" || q.got[0].Title != "Fan" {
		t.Fatalf("unexpected queued payloads %+v", q.got)
	}
}

func TestQueriesTargetJobTable(t *testing.T) {
	if !strings.Contains(insertJobQuery, "label_print_jobs") {
		t.Fatal("expected insert into label_print_jobs")
	}
	for _, fragment := range []string{"status = 'rendered' AND created_at < $1", "status = 'failed' AND created_at < $2"} {
		if !strings.Contains(deleteFinishedJobsQuery, fragment) {
			t.Fatalf("expected cleanup query to contain %q", fragment)
		}
	}
}

type memStore struct {
	bucket, folder, name string
	size                 int64
}

func (m *memStore) UploadFile(_ context.Context, bucket, folder, fileName, _ string, _ io.Reader, size int64) (string, error) {
	m.bucket, m.folder, m.name, m.size = bucket, folder, fileName, size
	return folder + "/" + fileName, nil
}
func (m *memStore) EnsureBucketExists(context.Context, string) error { return nil }
func (m *memStore) ValidateContentType(string) error                 { return nil }
func (m *memStore) ValidateFileSize(int64) error                     { return nil }

func TestStorageSinkSpoolsPerWarehouse(t *testing.T) {
	store := &memStore{}
	jobs := &memJobs{}
	p := NewProcessor(jobs, NewStorageSink(store, "entry-labels"), logger.Discard())

	if err := p.HandleLabelPrint(context.Background(), scheduler.LabelPrintPayload{Kind: "qc", WSN: "ABC1", WarehouseID: 5}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if store.bucket != "entry-labels" || store.folder != "qc/5" || store.name != "ABC1.png" || store.size == 0 {
		t.Fatalf("unexpected upload %+v", store)
	}
	if jobs.jobs[0].Status != StatusRendered {
		t.Fatalf("expected rendered job, got %+v", jobs.jobs[0])
	}
}
