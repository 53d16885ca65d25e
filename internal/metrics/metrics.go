// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやポータルクライアントから利用する。
type MetricsCollector interface {
	RecordLoginSuccess(account string)
	RecordLoginFailure(account string)
	RecordFetchedRecords(strategy string, count int)
	RecordFetchLatency(duration time.Duration)
	RecordDispatched()
	RecordDispatchFailure()
	RecordDuplicate()
	SetSeenIdentities(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess   prometheus.Counter
	loginFail      prometheus.Counter
	recordsFetched *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	dispatched     prometheus.Counter
	dispatchFail   prometheus.Counter
	duplicates     prometheus.Counter
	seenIdentities prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdrwatch_login_success_total",
			Help: "ポータルログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdrwatch_login_fail_total",
			Help: "ポータルログイン失敗の合計数",
		}),
		recordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdrwatch_records_fetched_total",
			Help: "フェッチ戦略別の取得レコード数",
		}, []string{"strategy"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cdrwatch_cycle_latency_seconds",
			Help:    "ログインからフェッチ完了までのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdrwatch_dispatched_total",
			Help: "通知配信に成功した新着レコードの合計数",
		}),
		dispatchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdrwatch_dispatch_fail_total",
			Help: "リトライ後も通知配信に失敗したレコードの合計数",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdrwatch_duplicates_total",
			Help: "重複排除で抑止されたレコードの合計数",
		}),
		seenIdentities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cdrwatch_seen_identities",
			Help: "配信済みIdentityストアの現在のサイズ",
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.recordsFetched,
		c.fetchLatency,
		c.dispatched,
		c.dispatchFail,
		c.duplicates,
		c.seenIdentities,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess(account string) {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(account string) {
	c.loginFail.Inc()
}

// RecordFetchedRecords はフェッチ戦略別の取得レコード数を記録する。
func (c *Collector) RecordFetchedRecords(strategy string, count int) {
	c.recordsFetched.WithLabelValues(strategy).Add(float64(count))
}

// RecordFetchLatency はサイクルのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordDispatched は通知配信成功を記録する。
func (c *Collector) RecordDispatched() {
	c.dispatched.Inc()
}

// RecordDispatchFailure は通知配信の最終失敗を記録する。
func (c *Collector) RecordDispatchFailure() {
	c.dispatchFail.Inc()
}

// RecordDuplicate は重複排除による抑止を記録する。
func (c *Collector) RecordDuplicate() {
	c.duplicates.Inc()
}

// SetSeenIdentities は配信済みIdentityストアのサイズを記録する。
func (c *Collector) SetSeenIdentities(count int) {
	c.seenIdentities.Set(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
