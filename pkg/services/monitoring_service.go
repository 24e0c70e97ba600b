package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"ai-sales-report/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 保持する履歴の上限
const (
	maxRequestLogs = 1000
	maxRunRecords  = 100
	recentLimit    = 10
)

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// RunRecord はHTTP APIから実行したレポート生成1回分の記録です。
type RunRecord struct {
	RunID       string        `json:"runId"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	Records     int           `json:"records"`
	Dispatched  bool          `json:"dispatched"`
	Placeholder bool          `json:"placeholder"`
	Error       string        `json:"error,omitempty"`
}

// MonitoringService はAPIとレポート実行のモニタリング機能を提供します。
type MonitoringService struct {
	logs   []LogEntry
	runs   []RunRecord
	mu     sync.RWMutex
	logger *zap.Logger
	now    func() time.Time
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService(logger *zap.Logger) *MonitoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonitoringService{
		logs:   make([]LogEntry, 0),
		runs:   make([]RunRecord, 0),
		logger: logger,
		now:    time.Now,
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxRequestLogs {
		s.logs = s.logs[len(s.logs)-maxRequestLogs:]
	}
}

// RecordRun はレポート実行の結果を記録します。reportはエラー時nilでもよい。
func (s *MonitoringService) RecordRun(started time.Time, report *models.Report, err error) RunRecord {
	record := RunRecord{StartedAt: started, Duration: s.now().Sub(started)}
	if report != nil {
		record.RunID = report.RunID
		record.Dispatched = report.Dispatched
		record.Placeholder = report.Placeholder
		if report.Facts != nil {
			record.Records = report.Facts.RecordCount
		}
	}
	if err != nil {
		record.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, record)
	if len(s.runs) > maxRunRecords {
		s.runs = s.runs[len(s.runs)-maxRunRecords:]
	}
	return record
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()

		// 次のミドルウェア/ハンドラを実行
		c.Next()

		path := c.Request.URL.Path
		entry := LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: s.now().Sub(start),
		}

		s.logger.Info("🌐 [HTTP] リクエスト",
			zap.String("method", entry.Method),
			zap.String("path", path),
			zap.Int("status", entry.StatusCode),
			zap.Duration("latency", entry.ResponseTime),
			zap.String("client_ip", c.ClientIP()),
		)

		// モニタリングAPI自身へのアクセスは集計しない
		if strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}
		s.LogRequest(entry)
	}
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	TotalRequests    int              `json:"totalRequests"`
	Endpoints        map[string]int   `json:"endpoints"`
	StatusCodes      map[string]int   `json:"statusCodes"`
	AvgResponseTimes map[string]int64 `json:"avgResponseTimesMs"`
	RecentErrors     []LogEntry       `json:"recentErrors"`
	RecentRuns       []RunRecord      `json:"recentRuns"`
}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(period time.Duration) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := s.now().Add(-period)

	data := DashboardData{
		Endpoints: make(map[string]int),
		StatusCodes: map[string]int{
			"2xx Success":      0,
			"4xx Client Error": 0,
			"5xx Server Error": 0,
		},
		AvgResponseTimes: make(map[string]int64),
		RecentErrors:     make([]LogEntry, 0),
		RecentRuns:       make([]RunRecord, 0),
	}

	responseTimeSum := make(map[string]time.Duration)
	for _, entry := range s.logs {
		if entry.Timestamp.Before(since) {
			continue
		}
		data.TotalRequests++
		data.Endpoints[entry.Path]++
		responseTimeSum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 500:
			data.StatusCodes["5xx Server Error"]++
		case entry.StatusCode >= 400:
			data.StatusCodes["4xx Client Error"]++
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			data.StatusCodes["2xx Success"]++
		}
	}
	for path, total := range responseTimeSum {
		data.AvgResponseTimes[path] = total.Milliseconds() / int64(data.Endpoints[path])
	}

	// 新しい順
	for i := len(s.logs) - 1; i >= 0 && len(data.RecentErrors) < recentLimit; i-- {
		if s.logs[i].StatusCode >= 500 && !s.logs[i].Timestamp.Before(since) {
			data.RecentErrors = append(data.RecentErrors, s.logs[i])
		}
	}
	for i := len(s.runs) - 1; i >= 0 && len(data.RecentRuns) < recentLimit; i-- {
		if !s.runs[i].StartedAt.Before(since) {
			data.RecentRuns = append(data.RecentRuns, s.runs[i])
		}
	}
	sort.SliceStable(data.RecentRuns, func(i, j int) bool {
		return data.RecentRuns[i].StartedAt.After(data.RecentRuns[j].StartedAt)
	})

	return data
}
