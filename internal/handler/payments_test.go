package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func queryContext(target string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestParseRangeDefaults(t *testing.T) {
	rng := parseRange(queryContext("/api/payments/summary"))

	assert.WithinDuration(t, time.Now(), rng.To, time.Minute)
	assert.WithinDuration(t, rng.To.Add(-defaultAnalyticsWindow), rng.From, time.Minute)
}

func TestParseRangeExplicit(t *testing.T) {
	rng := parseRange(queryContext("/api/payments/summary?from=2026-01-01T00:00:00Z&to=2026-02-01T00:00:00Z"))

	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), rng.From.UTC())
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rng.To.UTC())
}

func TestParseRangeIgnoresGarbage(t *testing.T) {
	rng := parseRange(queryContext("/api/payments/summary?from=yesterday&to=tomorrow"))

	assert.WithinDuration(t, time.Now(), rng.To, time.Minute)
	assert.WithinDuration(t, rng.To.Add(-defaultAnalyticsWindow), rng.From, time.Minute)
}

func TestBodyMapRequestSplit(t *testing.T) {
	req := BodyMapRequest{
		"region": "shoulder",
		"clear":  false,
		"pain":   5.0,
		"note":   "worse after training",
	}

	region, clear, attrs := req.region()
	assert.Equal(t, "shoulder", region)
	assert.False(t, clear)
	assert.Equal(t, map[string]any{"pain": 5.0, "note": "worse after training"}, attrs)
}

func TestBodyMapRequestClear(t *testing.T) {
	req := BodyMapRequest{"region": "knee", "clear": true}

	region, clear, attrs := req.region()
	assert.Equal(t, "knee", region)
	assert.True(t, clear)
	assert.Empty(t, attrs)
}

func TestBodyMapRequestMissingRegion(t *testing.T) {
	req := BodyMapRequest{"pain": 1.0}

	region, _, _ := req.region()
	assert.Empty(t, region)
}
