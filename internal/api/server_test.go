package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-economy/internal/agents"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/industry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	people := agents.Generate(100, rand.New(rand.NewSource(1)))
	sim, err := engine.NewSimulation(agents.NewPopulation(people), industry.New(1, industry.Assign(people, 1, 3)), engine.DefaultOptions())
	require.NoError(t, err)
	return &Server{Sim: sim, Eng: engine.NewEngine(), AdminKey: "k"}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusAndPrices(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, float64(100), status["population"])

	rec = get(t, h, "/api/v1/prices")
	require.Equal(t, http.StatusOK, rec.Code)
	var prices []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prices))
	assert.Len(t, prices, 17)
	assert.Equal(t, "Food", prices[0]["good"])
}

func TestReportAfterTick(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/report").Code)
	require.NoError(t, s.Sim.Tick(1))

	rec := get(t, h, "/api/v1/report")
	require.Equal(t, http.StatusOK, rec.Code)
	var report engine.TickReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, uint64(1), report.Tick)
	assert.NotEmpty(t, report.Goods)
}

func TestAgentAndRecipes(t *testing.T) {
	h := newTestServer(t).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/agent/3").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/agent/1000").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/agent/x").Code)

	rec := get(t, h, "/api/v1/recipes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"WeaponFactory"`)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/v1/history/food").Code)
}

func TestSpeedRequiresToken(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed": 0}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{"speed": 0}`))
	req.Header.Set("Authorization", "Bearer k")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, s.Eng.Speed())
}

func TestScanQuota(t *testing.T) {
	q := NewScanQuota(2, time.Minute)
	now := time.Unix(1000, 0)
	q.now = func() time.Time { return now }

	ok, _ := q.Take("a")
	assert.True(t, ok)
	ok, _ = q.Take("a")
	assert.True(t, ok)

	now = now.Add(15 * time.Second)
	ok, retry := q.Take("a")
	assert.False(t, ok)
	assert.Equal(t, 45*time.Second, retry)

	ok, _ = q.Take("b")
	assert.True(t, ok)

	now = now.Add(45 * time.Second)
	ok, _ = q.Take("a")
	assert.True(t, ok)
}

func TestLimitScansRetryAfter(t *testing.T) {
	q := NewScanQuota(1, time.Minute)
	now := time.Unix(1000, 0)
	q.now = func() time.Time { return now }
	h := limitScans(q, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/population", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	now = now.Add(500 * time.Millisecond)
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
