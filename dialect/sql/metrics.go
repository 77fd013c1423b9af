package sql

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsCollector exports QueryStats as Prometheus metrics.
//
//	stats := sql.NewStatsDriver(drv)
//	prometheus.MustRegister(sql.NewStatsCollector("linktable", stats.QueryStats()))
type StatsCollector struct {
	stats    *QueryStats
	queries  *prometheus.Desc
	execs    *prometheus.Desc
	duration *prometheus.Desc
	slow     *prometheus.Desc
	errors   *prometheus.Desc
}

// NewStatsCollector returns a collector reading from stats. Metric names are
// prefixed with namespace.
func NewStatsCollector(namespace string, stats *QueryStats) *StatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "sql", name), help, nil, nil)
	}
	return &StatsCollector{
		stats:    stats,
		queries:  desc("queries_total", "Total number of queries executed."),
		execs:    desc("execs_total", "Total number of statements executed."),
		duration: desc("duration_seconds_total", "Total time spent executing statements."),
		slow:     desc("slow_queries_total", "Number of statements exceeding the slow threshold."),
		errors:   desc("errors_total", "Number of failed statements."),
	}
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queries
	ch <- c.execs
	ch <- c.duration
	ch <- c.slow
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Stats()
	ch <- prometheus.MustNewConstMetric(c.queries, prometheus.CounterValue, float64(s.TotalQueries))
	ch <- prometheus.MustNewConstMetric(c.execs, prometheus.CounterValue, float64(s.TotalExecs))
	ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, s.TotalDuration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.slow, prometheus.CounterValue, float64(s.SlowQueries))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
}

var _ prometheus.Collector = (*StatsCollector)(nil)
