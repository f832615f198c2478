package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder はリクエストメトリクスの記録先インターフェース。
// metricsパッケージのCollectorが満たす。
type RequestRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(path string, duration time.Duration)
}

// NewMetricsMiddleware はリクエストのステータスコードとレイテンシを記録するミドルウェアを返す。
// レイテンシのラベルにはルーティング前の生パスではなくr.URL.Pathを使用する。
func NewMetricsMiddleware(recorder RequestRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			recorder.RecordHTTPStatus(rec.statusCode)
			recorder.RecordRequestLatency(r.URL.Path, time.Since(start))
		})
	}
}
