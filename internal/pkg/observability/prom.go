package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "bgstats"
)

const (
	OutcomeSuccess = "success"
	OutcomeNoData  = "no_data"
	OutcomeFailure = "failure"
)

var (
	AggregateJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "aggregate", "job_duration_seconds"),
		Help:    "Duration of a single selector aggregation job in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"entity", "time_period"})
	AggregateJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "aggregate", "jobs_total"),
		Help: "Selector aggregation jobs by outcome",
	}, []string{"entity", "outcome"})
	ShardsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "shards", "loaded_total"),
		Help: "Shards successfully loaded and decoded",
	}, []string{"entity"})
	ShardParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "shard", "parse_errors_total"),
		Help: "Shards or shard entries skipped because they could not be decoded",
	}, []string{"entity", "reason"})
	JobConsumeMessagingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "job", "consume_messaging_latency_seconds"),
		Help:    "Messaging latency of aggregation job consumption in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{})
	WorkerSweepDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "worker", "sweep_duration_seconds"),
		Help: "Duration of last worker sweep in seconds",
	}, []string{"entity"})
)
