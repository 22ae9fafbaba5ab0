package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// DBStatsCollector はデータベース接続プールの状態をPrometheusに公開する。
// スクレイプのたびにsql.DBStatsを読み取る。
type DBStatsCollector struct {
	db *sql.DB

	openConnections *prometheus.Desc
	inUse           *prometheus.Desc
	idle            *prometheus.Desc
	waitCount       *prometheus.Desc
	waitDuration    *prometheus.Desc
}

// NewDBStatsCollector は新しいDBStatsCollectorを生成する。
func NewDBStatsCollector(db *sql.DB) *DBStatsCollector {
	return &DBStatsCollector{
		db: db,
		openConnections: prometheus.NewDesc(
			"assuredlife_db_open_connections",
			"オープン中のデータベース接続数",
			nil, nil,
		),
		inUse: prometheus.NewDesc(
			"assuredlife_db_in_use_connections",
			"使用中のデータベース接続数",
			nil, nil,
		),
		idle: prometheus.NewDesc(
			"assuredlife_db_idle_connections",
			"アイドル状態のデータベース接続数",
			nil, nil,
		),
		waitCount: prometheus.NewDesc(
			"assuredlife_db_wait_count_total",
			"接続待ちが発生した累計回数",
			nil, nil,
		),
		waitDuration: prometheus.NewDesc(
			"assuredlife_db_wait_duration_seconds_total",
			"接続待ちに費やした累計時間（秒）",
			nil, nil,
		),
	}
}

// Describe はメトリクスの定義を送出する。
func (c *DBStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openConnections
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waitCount
	ch <- c.waitDuration
}

// Collect は現在の接続プール状態を送出する。
func (c *DBStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.db.Stats()
	ch <- prometheus.MustNewConstMetric(c.openConnections, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(stats.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitDuration, prometheus.CounterValue, stats.WaitDuration.Seconds())
}
