package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testBackends(t *testing.T) map[string]Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Cache{
		"memory": NewMemory(),
		"redis":  NewRedisWithClient(client),
	}
}

func TestGetOrPopulate_PopulatesOnceThenServesCached(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var calls int

			populate := func(context.Context) (string, error) {
				calls++
				return "projection", nil
			}

			for i := 0; i < 3; i++ {
				value, err := backend.GetOrPopulate(ctx, "stages:active", populate)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if value != "projection" {
					t.Fatalf("expected cached projection, got %q", value)
				}
			}
			if calls != 1 {
				t.Fatalf("expected a single populate call, got %d", calls)
			}
		})
	}
}

func TestGetOrPopulate_ErrorIsNotCached(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			boom := errors.New("db down")
			fail := true

			populate := func(context.Context) (string, error) {
				if fail {
					return "", boom
				}
				return "recovered", nil
			}

			if _, err := backend.GetOrPopulate(ctx, "k", populate); !errors.Is(err, boom) {
				t.Fatalf("expected populate error, got %v", err)
			}

			fail = false
			value, err := backend.GetOrPopulate(ctx, "k", populate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if value != "recovered" {
				t.Fatalf("expected fresh populate after error, got %q", value)
			}
		})
	}
}

func TestInvalidate_ForcesRepopulation(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			version := "v1"

			populate := func(context.Context) (string, error) {
				return version, nil
			}

			if _, err := backend.GetOrPopulate(ctx, "stages:active", populate); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := backend.GetOrPopulate(ctx, "stages:progression", populate); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			version = "v2"
			if err := backend.Invalidate(ctx, "stages:active", "stages:progression"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			value, err := backend.GetOrPopulate(ctx, "stages:active", populate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if value != "v2" {
				t.Fatalf("expected repopulated value v2, got %q", value)
			}
		})
	}
}

func TestMemory_ConcurrentMissesShareOnePopulate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	populate := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	const goroutines = 8
	var wg sync.WaitGroup
	results := make([]string, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.GetOrPopulate(ctx, "k", populate)
		}(i)
	}

	close(release)
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Fatalf("goroutine %d: expected shared value, got %q", i, results[i])
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one populate across concurrent misses, got %d", got)
	}
}
