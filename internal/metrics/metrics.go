// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 候補提案のモード
const (
	ModeKeyword  = "keyword"
	ModeBaseItem = "base_item"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ワーカー、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordSuggestion(mode string, scored, returned int, duration time.Duration)
	RecordMatchUpsert(created bool)
	RecordMatchTransition(status string)
	RecordAutoMatchRun(upserted, failed int, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	suggestions        *prometheus.CounterVec
	candidatesScored   prometheus.Counter
	candidatesReturned prometheus.Histogram
	suggestLatency     *prometheus.HistogramVec
	matchUpserts       *prometheus.CounterVec
	matchTransitions   *prometheus.CounterVec
	autoMatchUpserted  prometheus.Counter
	autoMatchFailed    prometheus.Counter
	autoMatchDuration  prometheus.Histogram
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_suggestions_total",
			Help: "モード別の候補提案リクエスト数",
		}, []string{"mode"}),
		candidatesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_candidates_scored_total",
			Help: "スコアを算出した候補の合計数",
		}),
		candidatesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lostfound_candidates_returned",
			Help:    "1リクエストで返した候補数",
			Buckets: []float64{0, 1, 3, 5, 12, 25, 50},
		}),
		suggestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lostfound_suggest_latency_seconds",
			Help:    "候補提案のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		matchUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_match_upserts_total",
			Help: "マッチのUPSERT数（created/updated）",
		}, []string{"result"}),
		matchTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_match_transitions_total",
			Help: "遷移後の状態別のマッチ状態遷移数",
		}, []string{"status"}),
		autoMatchUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_automatch_upserted_total",
			Help: "自動マッチで登録したマッチの合計数",
		}),
		autoMatchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_automatch_failed_total",
			Help: "自動マッチで処理に失敗した紛失届の合計数",
		}),
		autoMatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lostfound_automatch_run_seconds",
			Help:    "自動マッチ1サイクルの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.suggestions,
		c.candidatesScored,
		c.candidatesReturned,
		c.suggestLatency,
		c.matchUpserts,
		c.matchTransitions,
		c.autoMatchUpserted,
		c.autoMatchFailed,
		c.autoMatchDuration,
		c.httpStatus,
	)

	return c
}

// RecordSuggestion は1回の候補提案を記録する。
func (c *Collector) RecordSuggestion(mode string, scored, returned int, duration time.Duration) {
	c.suggestions.WithLabelValues(mode).Inc()
	c.candidatesScored.Add(float64(scored))
	c.candidatesReturned.Observe(float64(returned))
	c.suggestLatency.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordMatchUpsert はマッチのUPSERTを記録する。
func (c *Collector) RecordMatchUpsert(created bool) {
	result := "updated"
	if created {
		result = "created"
	}
	c.matchUpserts.WithLabelValues(result).Inc()
}

// RecordMatchTransition はマッチの状態遷移を記録する。
func (c *Collector) RecordMatchTransition(status string) {
	c.matchTransitions.WithLabelValues(status).Inc()
}

// RecordAutoMatchRun は自動マッチ1サイクルの結果を記録する。
func (c *Collector) RecordAutoMatchRun(upserted, failed int, duration time.Duration) {
	c.autoMatchUpserted.Add(float64(upserted))
	c.autoMatchFailed.Add(float64(failed))
	c.autoMatchDuration.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
