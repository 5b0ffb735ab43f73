package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"clinic-booking/internal/configs"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func newTestHandler(t *testing.T, config configs.RateLimit) (http.Handler, *miniredis.Miniredis, *fakeClock) {
	server := miniredis.RunT(t)
	client := NewClient(configs.RedisOptions{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clock := &fakeClock{now: time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)}
	return newLimiter(config, client, zap.NewNop(), clock.Now).handler(ok), server, clock
}

func call(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/50/eligible-staff", nil)
	req.RemoteAddr = remoteAddr
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestMiddleware(t *testing.T) {
	config := configs.RateLimit{Enabled: true, Capacity: 2, RefillEvery: 10 * time.Second, KeyPrefix: "clinic"}
	handler, server, clock := newTestHandler(t, config)

	first := call(handler, "10.0.0.1:5000")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := call(handler, "10.0.0.1:5001")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	clock.Advance(4 * time.Second)
	blocked := call(handler, "10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "6", blocked.Header().Get("Retry-After"))

	other := call(handler, "10.0.0.2:5000")
	assert.Equal(t, http.StatusOK, other.Code, "buckets are per client ip")

	clock.Advance(6 * time.Second)
	refilled := call(handler, "10.0.0.1:5003")
	assert.Equal(t, http.StatusOK, refilled.Code)

	assert.True(t, server.Exists("clinic:ip:10.0.0.1"))
	assert.Greater(t, server.TTL("clinic:ip:10.0.0.1"), time.Duration(0))
}

func TestMiddlewareDisabled(t *testing.T) {
	config := configs.RateLimit{Enabled: false, Capacity: 1, RefillEvery: time.Minute, KeyPrefix: "clinic"}
	handler, _, _ := newTestHandler(t, config)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, call(handler, "10.0.0.1:5000").Code)
	}
}

func TestMiddlewareFailsOpen(t *testing.T) {
	config := configs.RateLimit{Enabled: true, Capacity: 1, RefillEvery: time.Minute, KeyPrefix: "clinic"}
	handler, server, _ := newTestHandler(t, config)
	server.Close()
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, call(handler, "10.0.0.1:5000").Code)
	}
}

func TestMiddlewareWithoutClient(t *testing.T) {
	config := configs.RateLimit{Enabled: true, Capacity: 1, RefillEvery: time.Minute, KeyPrefix: "clinic"}
	handler := Middleware(config, nil, zap.NewNop())(ok)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, call(handler, "10.0.0.1:5000").Code)
	}
}
