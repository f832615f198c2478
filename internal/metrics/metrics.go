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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordLogin(method string)
	RecordLoginFailure(method string)
	RecordRegistration()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(path string, duration time.Duration)
	RecordDBQueryLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins         *prometheus.CounterVec
	loginFailures  *prometheus.CounterVec
	registrations  prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	dbQueryLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_login_total",
			Help: "ログイン成功の合計数（認証方式別）",
		}, []string{"method"}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_login_failure_total",
			Help: "ログイン失敗の合計数（認証方式別）",
		}, []string{"method"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atlas_registration_total",
			Help: "新規ユーザー登録の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atlas_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atlas_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		dbQueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "atlas_db_query_latency_seconds",
			Help:    "データベースクエリのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.loginFailures,
		c.registrations,
		c.httpStatus,
		c.requestLatency,
		c.dbQueryLatency,
	)

	return c
}

// RecordLogin はログイン成功を記録する。methodは"credentials"または"google"。
func (c *Collector) RecordLogin(method string) {
	c.logins.WithLabelValues(method).Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(method string) {
	c.loginFailures.WithLabelValues(method).Inc()
}

// RecordRegistration は新規登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(path string, duration time.Duration) {
	c.requestLatency.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordDBQueryLatency はデータベースクエリのレイテンシを記録する。
func (c *Collector) RecordDBQueryLatency(duration time.Duration) {
	c.dbQueryLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
