package cache

import (
	"context"
	"testing"
	"time"

	"warehouse_ops_backend/internal/masterdata/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute), mr
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "WSN1"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, repository.Product{WSN: "WSN1", Title: "Kettle", MRPCents: 129900}); err != nil {
		t.Fatalf("set: %v", err)
	}
	p, ok, err := c.Get(ctx, "WSN1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if p.Title != "Kettle" || p.MRPCents != 129900 {
		t.Fatalf("unexpected product %+v", p)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "WSN1"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestCacheDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, repository.Product{WSN: "WSN2", Title: "Fan"})
	if err := c.Delete(ctx, "WSN2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "WSN2"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCacheCorruptValueIsError(t *testing.T) {
	c, mr := newTestCache(t)
	if err := mr.Set(key("BAD"), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := c.Get(context.Background(), "BAD"); err == nil {
		t.Fatal("expected decode error")
	}
}
