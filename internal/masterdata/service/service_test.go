package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"warehouse_ops_backend/internal/masterdata/cache"
	"warehouse_ops_backend/internal/masterdata/repository"
	"warehouse_ops_backend/internal/masterdata/transport"
	"warehouse_ops_backend/platform/apperr"
	"warehouse_ops_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeRepo struct {
	mu       sync.Mutex
	products map[string]repository.Product
	gets     atomic.Int32
	release  chan struct{}
}

func newFakeRepo(products ...repository.Product) *fakeRepo {
	r := &fakeRepo{products: map[string]repository.Product{}}
	for _, p := range products {
		r.products[p.WSN] = p
	}
	return r
}

func (r *fakeRepo) GetByWSN(_ context.Context, wsn string) (repository.Product, error) {
	r.gets.Add(1)
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[wsn]
	if !ok {
		return repository.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

func (r *fakeRepo) Upsert(_ context.Context, p repository.Product) (repository.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.UpdatedAt = time.Now()
	r.products[p.WSN] = p
	return p, nil
}

func newCachedService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return New(repo, cache.New(client, time.Minute), logger.Discard()), mr
}

func TestRecordNormalizesAndCaches(t *testing.T) {
	repo := newFakeRepo(repository.Product{WSN: "ABC1", Title: "Kettle", Brand: "Acme", MRPCents: 129950, FSPCents: 99900})
	svc, _ := newCachedService(t, repo)
	ctx := context.Background()

	rec, err := svc.Record(ctx, "  abc1 ")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec[FieldTitle] != "Kettle" || rec[FieldMRP] != "1299.50" || rec[FieldFSP] != "999.00" {
		t.Fatalf("unexpected record %v", rec)
	}

	if _, err := svc.Record(ctx, "ABC1"); err != nil {
		t.Fatalf("second record: %v", err)
	}
	if got := repo.gets.Load(); got != 1 {
		t.Fatalf("expected one repository read, got %d", got)
	}
}

func TestRecordNotFound(t *testing.T) {
	svc, _ := newCachedService(t, newFakeRepo())
	_, err := svc.Record(context.Background(), "MISSING")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordRejectsBlank(t *testing.T) {
	svc := New(newFakeRepo(), nil, logger.Discard())
	_, err := svc.Record(context.Background(), "   ")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCacheFailureDegradesToRepository(t *testing.T) {
	repo := newFakeRepo(repository.Product{WSN: "ABC1", Title: "Kettle"})
	svc, mr := newCachedService(t, repo)
	mr.Close()

	rec, err := svc.Record(context.Background(), "ABC1")
	if err != nil {
		t.Fatalf("expected repository fallback, got %v", err)
	}
	if rec[FieldTitle] != "Kettle" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestConcurrentMissesShareOneRead(t *testing.T) {
	repo := newFakeRepo(repository.Product{WSN: "ABC1", Title: "Kettle"})
	repo.release = make(chan struct{})
	svc := New(repo, nil, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Record(context.Background(), "ABC1"); err != nil {
				t.Errorf("record: %v", err)
			}
		}()
	}
	for repo.gets.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	if got := repo.gets.Load(); got != 1 {
		t.Fatalf("expected collapsed reads, got %d", got)
	}
}

func TestUpsertEvictsCache(t *testing.T) {
	repo := newFakeRepo(repository.Product{WSN: "ABC1", Title: "Old"})
	svc, _ := newCachedService(t, repo)
	ctx := context.Background()

	if _, err := svc.Record(ctx, "ABC1"); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if _, err := svc.Upsert(ctx, "abc1", transport.UpsertProductRequest{Title: "New"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rec, err := svc.Record(ctx, "ABC1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec[FieldTitle] != "New" {
		t.Fatalf("expected fresh title, got %v", rec)
	}
}

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 100: "1.00", -250: "-2.50"}
	for in, want := range cases {
		if got := formatCents(in); got != want {
			t.Fatalf("formatCents(%d) = %q, want %q", in, got, want)
		}
	}
}
