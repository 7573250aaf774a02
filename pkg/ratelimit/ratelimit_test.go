package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	r, _ := l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)
	assert.Equal(t, 1, r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)

	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, r.Allowed)
	assert.Equal(t, time.Minute, r.ResetIn)

	// other keys have their own window
	r, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, r.Allowed)

	now = now.Add(time.Minute)
	r, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, r.Allowed)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(5, time.Second)
	l.now = func() time.Time { return now }

	for _, ip := range []string{"a", "b", "c"} {
		_, err := l.Allow(context.Background(), ip)
		require.NoError(t, err)
	}
	assert.Len(t, l.windows, 3)

	now = now.Add(2 * time.Second)
	_, _ = l.Allow(context.Background(), "d")
	assert.Len(t, l.windows, 1)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _ := l.Allow(context.Background(), "ip")
			if r.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

type fakeCounter struct {
	counts map[string]int64
	keys   []string
	err    error
}

func (f *fakeCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.keys = append(f.keys, key)
	f.counts[key]++
	return f.counts[key], window, nil
}

func TestCounterLimiter(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}}
	l := NewCounterLimiter(counter, "rl:orders:", 1, time.Minute)

	r, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)

	r, err = l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Equal(t, "rl:orders:1.2.3.4", counter.keys[0])
}

func newRouter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/orders", Middleware(l, 1, zap.NewNop(), nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func post(r http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware(t *testing.T) {
	r := newRouter(NewMemoryLimiter(1, time.Minute))

	assert.Equal(t, http.StatusCreated, post(r).Code)

	rr := post(r)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddleware_FailsOpen(t *testing.T) {
	r := newRouter(NewCounterLimiter(&fakeCounter{err: errors.New("redis down")}, "", 1, time.Minute))

	assert.Equal(t, http.StatusCreated, post(r).Code)
	assert.Equal(t, http.StatusCreated, post(r).Code)
}
