// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ミドルウェア、リポジトリの再試行フックから利用する。
type MetricsCollector interface {
	RecordTimerOperation(operation, result string)
	RecordTimerDuration(seconds int64)
	RecordLogin(result string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordStoreRetry(operation string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	timerOps       *prometheus.CounterVec
	timerDuration  prometheus.Histogram
	logins         *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	storeRetries   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		timerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_timer_operations_total",
			Help: "タイマー操作の結果別件数",
		}, []string{"operation", "result"}),
		timerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "launchpad_timer_duration_seconds",
			Help: "確定した計測区間の所要時間（秒）",
			// 1分から12時間
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800, 43200},
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_logins_total",
			Help: "ログイン試行の結果別件数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "launchpad_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		storeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchpad_store_retries_total",
			Help: "一時的な障害によるストア操作の再試行回数",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.timerOps,
		c.timerDuration,
		c.logins,
		c.httpStatus,
		c.requestLatency,
		c.storeRetries,
	)

	return c
}

// RecordTimerOperation はタイマー操作の結果を記録する。
func (c *Collector) RecordTimerOperation(operation, result string) {
	c.timerOps.WithLabelValues(operation, result).Inc()
}

// RecordTimerDuration は確定した区間の所要時間を記録する。
func (c *Collector) RecordTimerDuration(seconds int64) {
	c.timerDuration.Observe(float64(seconds))
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordStoreRetry はストア操作の再試行を記録する。
func (c *Collector) RecordStoreRetry(operation string) {
	c.storeRetries.WithLabelValues(operation).Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordTimerOperation(string, string) {}
func (Nop) RecordTimerDuration(int64)           {}
func (Nop) RecordLogin(string)                  {}
func (Nop) RecordHTTPStatus(int)                {}
func (Nop) RecordRequestLatency(time.Duration)  {}
func (Nop) RecordStoreRetry(string)             {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
