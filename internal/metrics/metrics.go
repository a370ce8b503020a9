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
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordAICall(operation string)
	RecordAIFailure(operation string)
	RecordAILatency(operation string, duration time.Duration)
	RecordNewsFetchSuccess(sourceID string)
	RecordNewsFetchFailure(sourceID string, reason string)
	RecordArticlesUpserted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	aiCalls          *prometheus.CounterVec
	aiFailures       *prometheus.CounterVec
	aiLatency        *prometheus.HistogramVec
	newsFetchSuccess prometheus.Counter
	newsFetchFail    prometheus.Counter
	articlesUpserted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sumika_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		aiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sumika_ai_calls_total",
			Help: "AIプロバイダー呼び出しの合計数（操作別）",
		}, []string{"operation"}),
		aiFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sumika_ai_failures_total",
			Help: "AIプロバイダー呼び出し失敗の合計数（操作別）",
		}, []string{"operation"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sumika_ai_latency_seconds",
			Help:    "AIプロバイダー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		newsFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumika_news_fetch_success_total",
			Help: "ニュースフィードフェッチ成功の合計数",
		}),
		newsFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumika_news_fetch_fail_total",
			Help: "ニュースフィードフェッチ失敗の合計数",
		}),
		articlesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumika_articles_upserted_total",
			Help: "アップサートされたニュース記事の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.aiCalls,
		c.aiFailures,
		c.aiLatency,
		c.newsFetchSuccess,
		c.newsFetchFail,
		c.articlesUpserted,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAICall はAIプロバイダー呼び出しを記録する。
func (c *Collector) RecordAICall(operation string) {
	c.aiCalls.WithLabelValues(operation).Inc()
}

// RecordAIFailure はAIプロバイダー呼び出し失敗を記録する。
func (c *Collector) RecordAIFailure(operation string) {
	c.aiFailures.WithLabelValues(operation).Inc()
}

// RecordAILatency はAIプロバイダー呼び出しのレイテンシを記録する。
func (c *Collector) RecordAILatency(operation string, duration time.Duration) {
	c.aiLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordNewsFetchSuccess はニュースフェッチ成功を記録する。
func (c *Collector) RecordNewsFetchSuccess(sourceID string) {
	c.newsFetchSuccess.Inc()
}

// RecordNewsFetchFailure はニュースフェッチ失敗を記録する。
func (c *Collector) RecordNewsFetchFailure(sourceID string, reason string) {
	c.newsFetchFail.Inc()
}

// RecordArticlesUpserted はアップサートされた記事数を記録する。
func (c *Collector) RecordArticlesUpserted(count int) {
	c.articlesUpserted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
