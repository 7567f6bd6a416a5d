// Package metrics 定义并注册所有 Prometheus 指标
//
// 指标通过 promauto 注册到默认 registry，由 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "palmera"

// RecordsWrittenTotal 写入记录数
// 标签 table: 表名；op: insert、update、delete
var RecordsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_written_total",
		Help:      "Total number of rows written, by table and operation.",
	},
	[]string{"table", "op"},
)

// HTTPRequestDuration HTTP 请求耗时
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// RealtimeSubscribers 当前变更订阅数
var RealtimeSubscribers = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_subscribers",
		Help:      "Current number of change-feed subscribers per table.",
	},
	[]string{"table"},
)

// RealtimeDroppedTotal 订阅者缓冲已满而丢弃的通知数
var RealtimeDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_dropped_total",
		Help:      "Change notifications dropped because a subscriber buffer was full.",
	},
	[]string{"table"},
)

// AuthAttemptsTotal 登录/注册结果
// 标签 result: ok、invalid_credentials、email_not_confirmed、inactive、error 等
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Authentication attempts by action and result.",
	},
	[]string{"action", "result"},
)

// FormSubmissionsTotal 表单提交结果
// 标签 form: income、expense；result: ok、invalid、error
var FormSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "form_submissions_total",
		Help:      "Form submissions by form and result.",
	},
	[]string{"form", "result"},
)
