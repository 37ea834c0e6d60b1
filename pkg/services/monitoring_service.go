package services

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxLogEntries 保持するリクエストログの上限。超えた分は古いものから捨てる。
const MaxLogEntries = 10000

// RequestIDHeader リクエストIDを返すレスポンスヘッダー
const RequestIDHeader = "X-Request-ID"

// 集計対象外のパスプレフィックス
var unmonitoredPrefixes = []string{"/api/v1/admin", "/api/v1/monitoring", "/health"}

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	RequestID    string        `json:"requestId"`
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// MonitoringService はリクエストログの記録と集計を行います。
type MonitoringService struct {
	logs   []LogEntry // 上限に達した後はリングバッファ
	next   int        // 上限到達後、次に上書きする位置（最も古いエントリ）
	limit  int
	mu     sync.RWMutex
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService(logger *slog.Logger) *MonitoringService {
	if logger == nil {
		logger = slog.Default()
	}
	// 集計の時間帯はJST
	jst, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		jst = time.FixedZone("JST", 9*60*60)
	}
	return &MonitoringService{
		logs:   make([]LogEntry, 0),
		limit:  MaxLogEntries,
		logger: logger,
		now:    time.Now,
		loc:    jst,
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) < s.limit {
		s.logs = append(s.logs, entry)
		return
	}
	s.logs[s.next] = entry
	s.next = (s.next + 1) % s.limit
}

// entries は保持中のログを古い順に返します。呼び出し側でロックを取得していること。
func (s *MonitoringService) entries() []LogEntry {
	out := make([]LogEntry, 0, len(s.logs))
	out = append(out, s.logs[s.next:]...)
	return append(out, s.logs[:s.next]...)
}

// LoggingMiddleware はリクエストIDを付与し、アクセスログの出力とリクエストの記録を行うGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		path := c.Request.URL.Path
		entry := LogEntry{
			RequestID:    requestID,
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: s.now().Sub(start),
		}

		level := slog.LevelInfo
		if entry.StatusCode >= 500 {
			level = slog.LevelError
		} else if entry.StatusCode >= 400 {
			level = slog.LevelWarn
		}
		s.logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("request_id", requestID),
			slog.String("method", entry.Method),
			slog.String("path", path),
			slog.Int("status", entry.StatusCode),
			slog.Duration("latency", entry.ResponseTime),
		)

		for _, prefix := range unmonitoredPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}
		s.LogRequest(entry)
	}
}

// TimeBucket 1時間ごとのリクエスト数
type TimeBucket struct {
	Time     string `json:"time"`
	Requests int    `json:"requests"`
}

// StatusCount ステータスクラスごとの件数
type StatusCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// EndpointLatency エンドポイントごとの平均応答時間（ミリ秒）
type EndpointLatency struct {
	Endpoint     string `json:"endpoint"`
	ResponseTime int64  `json:"responseTime"`
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []TimeBucket      `json:"requestsOverTime"`
	Endpoints        map[string]int    `json:"endpoints"`
	StatusCodes      []StatusCount     `json:"statusCodes"`
	AvgResponseTimes []EndpointLatency `json:"avgResponseTimes"`
	RecentErrors     []LogEntry        `json:"recentErrors"`
}

var statusClasses = []string{"2xx Success", "4xx Client Error", "5xx Server Error"}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours <= 0 {
		periodHours = 24
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().In(s.loc)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filtered := make([]LogEntry, 0)
	for _, entry := range s.entries() {
		if entry.Timestamp.After(since) {
			filtered = append(filtered, entry)
		}
	}

	// 過去から現在へ向かう順序で時間バケットを用意
	buckets := make([]TimeBucket, periodHours)
	index := make(map[int64]int, periodHours)
	current := now.Truncate(time.Hour)
	for i := 0; i < periodHours; i++ {
		t := current.Add(-time.Duration(periodHours-1-i) * time.Hour)
		buckets[i] = TimeBucket{Time: t.Format("15:00")}
		index[t.Unix()] = i
	}

	endpoints := make(map[string]int)
	statusCounts := make(map[string]int, len(statusClasses))
	latencySum := make(map[string]time.Duration)
	var endpointOrder []string

	for _, entry := range filtered {
		if i, ok := index[entry.Timestamp.Truncate(time.Hour).Unix()]; ok {
			buckets[i].Requests++
		}

		if _, seen := endpoints[entry.Path]; !seen {
			endpointOrder = append(endpointOrder, entry.Path)
		}
		endpoints[entry.Path]++
		latencySum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusCounts[statusClasses[0]]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			statusCounts[statusClasses[1]]++
		case entry.StatusCode >= 500:
			statusCounts[statusClasses[2]]++
		}
	}

	statusCodes := make([]StatusCount, 0, len(statusClasses))
	for _, name := range statusClasses {
		statusCodes = append(statusCodes, StatusCount{Name: name, Value: statusCounts[name]})
	}

	avgResponseTimes := make([]EndpointLatency, 0, len(endpointOrder))
	for _, path := range endpointOrder {
		avg := latencySum[path].Milliseconds() / int64(endpoints[path])
		avgResponseTimes = append(avgResponseTimes, EndpointLatency{Endpoint: path, ResponseTime: avg})
	}

	// 直近の5xxを新しい順に最大10件
	recentErrors := make([]LogEntry, 0)
	for i := len(filtered) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filtered[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filtered[i])
		}
	}

	return DashboardData{
		RequestsOverTime: buckets,
		Endpoints:        endpoints,
		StatusCodes:      statusCodes,
		AvgResponseTimes: avgResponseTimes,
		RecentErrors:     recentErrors,
	}
}
