package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal(time.Second)

	var active, peak int32
	var wg sync.WaitGroup

	for range 8 {
		wg.Go(func() {
			release, err := l.Acquire(context.Background(), "show/1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		})
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak concurrent holders: got %d, want 1", peak)
	}
	if l.held() != 0 {
		t.Errorf("held keys after release: got %d, want 0", l.held())
	}
}

func TestLocalDistinctKeysDoNotBlock(t *testing.T) {
	l := NewLocal(50 * time.Millisecond)

	releaseA, err := l.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	releaseB, err := l.Acquire(context.Background(), "b")
	if err != nil {
		t.Fatalf("acquire b while a held: %v", err)
	}
	releaseB()
}

func TestLocalTimeout(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)

	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	_, err = l.Acquire(context.Background(), "k")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error: got %v, want ErrTimeout", err)
	}
}

func TestLocalContextCancel(t *testing.T) {
	l := NewLocal(0)

	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error: got %v, want context.Canceled", err)
	}

	release()
	release()

	if l.held() != 0 {
		t.Errorf("held keys: got %d, want 0", l.held())
	}
}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"redis with addr", Config{Backend: BackendRedis, RedisAddr: "localhost:6379"}, false},
		{"redis without addr", Config{Backend: BackendRedis}, true},
		{"unknown backend", Config{Backend: "etcd"}, true},
		{"bad wait", Config{Wait: "forever"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("TEST_LOCK_BACKEND", "redis")
	t.Setenv("TEST_LOCK_REDIS_ADDR", "redis:6379")

	cfg := Config{}
	env := &Env{Backend: "TEST_LOCK_BACKEND", RedisAddr: "TEST_LOCK_REDIS_ADDR"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.Backend != BackendRedis || cfg.RedisAddr != "redis:6379" {
		t.Errorf("got %+v", cfg)
	}
	if cfg.WaitDuration() != 30*time.Second {
		t.Errorf("wait: got %s", cfg.WaitDuration())
	}
}
