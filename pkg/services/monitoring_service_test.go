package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewMonitoringService(discardLogger())

	r := gin.New()
	r.Use(svc.LoggingMiddleware())
	r.GET("/api/v1/activities", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/admin/health-status", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))

	for _, path := range []string{"/api/v1/admin/health-status", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	require.Len(t, svc.logs, 2)
	assert.Equal(t, "fixed-id", svc.logs[1].RequestID)
	assert.Equal(t, http.StatusOK, svc.logs[0].StatusCode)
}

func TestLogRequestKeepsLatestEntries(t *testing.T) {
	svc := NewMonitoringService(discardLogger())
	for i := 0; i < MaxLogEntries+5; i++ {
		svc.LogRequest(LogEntry{StatusCode: i})
	}
	entries := svc.entries()
	require.Len(t, entries, MaxLogEntries)
	assert.Equal(t, 5, entries[0].StatusCode)
	assert.Equal(t, MaxLogEntries+4, entries[MaxLogEntries-1].StatusCode)
}

func TestLogRequestWrapsAround(t *testing.T) {
	svc := NewMonitoringService(discardLogger())
	svc.limit = 3

	for i := 1; i <= 2; i++ {
		svc.LogRequest(LogEntry{StatusCode: i})
	}
	assert.Equal(t, []int{1, 2}, statusCodes(svc.entries()))

	for i := 3; i <= 7; i++ {
		svc.LogRequest(LogEntry{StatusCode: i})
		assert.Len(t, svc.logs, 3, "上限を超えて領域を確保しない")
	}
	assert.Equal(t, []int{5, 6, 7}, statusCodes(svc.entries()))
	assert.Equal(t, 1, svc.next)
}

func statusCodes(entries []LogEntry) []int {
	codes := make([]int, len(entries))
	for i, e := range entries {
		codes[i] = e.StatusCode
	}
	return codes
}

func TestGetDashboardData(t *testing.T) {
	svc := NewMonitoringService(discardLogger())
	now := time.Date(2024, 1, 8, 10, 30, 0, 0, svc.loc)
	svc.now = func() time.Time { return now }

	entries := []LogEntry{
		{Timestamp: now.Add(-30 * time.Hour), Path: "/old", StatusCode: 200},
		{Timestamp: now.Add(-90 * time.Minute), Path: "/api/v1/analyze", StatusCode: 200, ResponseTime: 300 * time.Millisecond},
		{Timestamp: now.Add(-10 * time.Minute), Path: "/api/v1/analyze", StatusCode: 502, ResponseTime: 100 * time.Millisecond},
		{Timestamp: now.Add(-5 * time.Minute), Path: "/api/v1/activities", StatusCode: 400, ResponseTime: 10 * time.Millisecond},
	}
	for _, e := range entries {
		svc.LogRequest(e)
	}

	data := svc.GetDashboardData(24)

	require.Len(t, data.RequestsOverTime, 24)
	last := data.RequestsOverTime[23]
	assert.Equal(t, "10:00", last.Time)
	assert.Equal(t, 2, last.Requests)
	assert.Equal(t, "09:00", data.RequestsOverTime[22].Time)
	assert.Equal(t, 1, data.RequestsOverTime[22].Requests)

	assert.Equal(t, map[string]int{"/api/v1/analyze": 2, "/api/v1/activities": 1}, data.Endpoints)
	assert.Equal(t, []StatusCount{
		{Name: "2xx Success", Value: 1},
		{Name: "4xx Client Error", Value: 1},
		{Name: "5xx Server Error", Value: 1},
	}, data.StatusCodes)
	assert.Equal(t, []EndpointLatency{
		{Endpoint: "/api/v1/analyze", ResponseTime: 200},
		{Endpoint: "/api/v1/activities", ResponseTime: 10},
	}, data.AvgResponseTimes)
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, 502, data.RecentErrors[0].StatusCode)
}
