package mdxsl

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestResolvePoolSize - Sizing
// ---------------------------------------------------------------------------

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit takes priority", 4, 4},
		{"explicit=1 for sequential", 1, 1},
		{"explicit above cap", 12, 12},
		{"zero uses auto calculation", 0, min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
		{"negative uses auto calculation", -3, min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConverterPool - Lazy Creation and Reuse
// ---------------------------------------------------------------------------

func TestConverterPool_LazyCreation(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(2, WithTransformer(Identity{}))
	defer pool.Close()

	if pool.Size() != 2 {
		t.Errorf("Size() = %d, want 2", pool.Size())
	}
	if pool.created != 0 {
		t.Errorf("created = %d before first Acquire", pool.created)
	}

	a, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	b, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if a == b {
		t.Error("two concurrent acquires returned the same converter")
	}

	pool.Release(a)
	c, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if c != a {
		t.Error("released converter was not reused")
	}
	if pool.created != 2 {
		t.Errorf("created = %d, want 2", pool.created)
	}
}

func TestConverterPool_MinimumSize(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(0)
	defer pool.Close()

	if pool.Size() != 1 {
		t.Errorf("Size() = %d, want 1", pool.Size())
	}
}

func TestConverterPool_BlocksUntilRelease(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, WithTransformer(Identity{}))
	defer pool.Close()

	first, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	got := make(chan *Converter)
	go func() {
		conv, _ := pool.Acquire()
		got <- conv
	}()

	select {
	case <-got:
		t.Fatal("Acquire() returned while the only converter was in use")
	case <-time.After(50 * time.Millisecond):
	}

	pool.Release(first)
	select {
	case conv := <-got:
		if conv != first {
			t.Error("blocked Acquire() got a new converter")
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire() did not return after Release")
	}
}

func TestConverterPool_CreationError(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, WithAssetPath("/nonexistent/assets"))
	defer pool.Close()

	if _, err := pool.Acquire(); !errors.Is(err, ErrInvalidAssetPath) {
		t.Fatalf("Acquire() error = %v, want ErrInvalidAssetPath", err)
	}
	if pool.created != 0 {
		t.Errorf("failed creation kept its slot: created = %d", pool.created)
	}
}

func TestConverterPool_Close(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(2, WithTransformer(Identity{}))
	conv, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	pool.Release(conv) // no panic on closed pool
	if _, err := pool.Acquire(); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() after Close error = %v, want ErrPoolClosed", err)
	}
}

func TestConverterPool_Concurrent(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(3, WithTransformer(Identity{}))
	defer pool.Close()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, err := pool.Acquire()
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			pool.Release(conv)
		}()
	}
	wg.Wait()

	if pool.created > 3 {
		t.Errorf("created = %d, exceeds size 3", pool.created)
	}
}
