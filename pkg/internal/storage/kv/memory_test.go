package kv_test

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/firmvault/pkg/internal/storage/kv"
)

func newMemory(t testing.TB) kv.KVStore {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestMemoryKVBasic(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	if err := store.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("got %q, want %q", got, "v1")
	}

	exists, err := store.Exists(ctx, "k1")
	if err != nil || !exists {
		t.Fatalf("exists = %v, %v; want true, nil", exists, err)
	}

	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := store.Get(ctx, "k1"); err == nil {
		t.Fatal("get after delete should fail")
	}
}

func TestMemoryKVReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	if err := store.Set(ctx, "k", []byte("abc"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	got[0] = 'x'

	again, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if !bytes.Equal(again, []byte("abc")) {
		t.Fatalf("stored value mutated: %q", again)
	}
}

func TestMemoryKVTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	if err := store.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if _, err := store.Get(ctx, "short"); err != nil {
		t.Fatalf("get before expiry failed: %v", err)
	}

	// 过期判断以秒为粒度
	time.Sleep(1100 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); err == nil {
		t.Fatal("get after expiry should fail")
	}

	exists, _ := store.Exists(ctx, "short")
	if exists {
		t.Fatal("expired key should not exist")
	}
}

func BenchmarkMemoryKV(b *testing.B) {
	ctx := context.Background()
	store := newMemory(b)
	payload := bytes.Repeat([]byte("x"), 1024)

	var ctr uint64

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := atomic.AddUint64(&ctr, 1)
			key := fmt.Sprintf("bench-%d", i)

			if err := store.Set(ctx, key, payload, 0); err != nil {
				b.Fatalf("set failed: %v", err)
			}

			if _, err := store.Get(ctx, key); err != nil {
				b.Fatalf("get failed: %v", err)
			}

			if err := store.Delete(ctx, key); err != nil {
				b.Fatalf("delete failed: %v", err)
			}
		}
	})
}
