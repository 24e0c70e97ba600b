package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-sales-report/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMonitoringDashboard(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	s := NewMonitoringService(nil)
	s.now = func() time.Time { return now }

	s.LogRequest(LogEntry{Timestamp: now.Add(-10 * time.Minute), Path: "/health", StatusCode: 200, ResponseTime: 4 * time.Millisecond})
	s.LogRequest(LogEntry{Timestamp: now.Add(-5 * time.Minute), Path: "/health", StatusCode: 200, ResponseTime: 2 * time.Millisecond})
	s.LogRequest(LogEntry{Timestamp: now.Add(-2 * time.Minute), Path: "/api/v1/reports/send", StatusCode: 502})
	s.LogRequest(LogEntry{Timestamp: now.Add(-3 * time.Hour), Path: "/health", StatusCode: 401})

	data := s.GetDashboardData(time.Hour)
	assert.Equal(t, 3, data.TotalRequests)
	assert.Equal(t, 2, data.Endpoints["/health"])
	assert.Equal(t, 2, data.StatusCodes["2xx Success"])
	assert.Equal(t, 0, data.StatusCodes["4xx Client Error"])
	assert.Equal(t, 1, data.StatusCodes["5xx Server Error"])
	assert.Equal(t, int64(3), data.AvgResponseTimes["/health"])
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, "/api/v1/reports/send", data.RecentErrors[0].Path)
}

func TestMonitoringRecordRun(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	s := NewMonitoringService(nil)
	s.now = func() time.Time { return now }

	report := &models.Report{RunID: "run-1", Facts: &models.SummaryFacts{RecordCount: 50}, Dispatched: true}
	ok := s.RecordRun(now.Add(-3*time.Second), report, nil)
	assert.Equal(t, 3*time.Second, ok.Duration)
	assert.Equal(t, 50, ok.Records)

	failed := s.RecordRun(now.Add(-time.Second), nil, errors.New("smtp down"))
	assert.Equal(t, "smtp down", failed.Error)

	runs := s.GetDashboardData(time.Hour).RecentRuns
	require.Len(t, runs, 2)
	assert.Equal(t, "smtp down", runs[0].Error)
	assert.Equal(t, "run-1", runs[1].RunID)
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewMonitoringService(zaptest.NewLogger(t))

	r := gin.New()
	r.Use(s.LoggingMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/monitoring/logs", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/api/v1/monitoring/logs"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	data := s.GetDashboardData(time.Hour)
	assert.Equal(t, 1, data.TotalRequests)
	assert.Equal(t, 1, data.Endpoints["/health"])
}
