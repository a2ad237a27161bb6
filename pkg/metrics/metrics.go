// Package metrics 定义服务的 Prometheus 指标，通过私有路由的 /metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notesync"

var (
	// VersionsCreated 创建的笔记版本总数
	VersionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "versions_created_total",
		Help:      "Total number of note versions created.",
	})

	// VersionsDeduplicated 因内容哈希重复而复用已有版本的次数
	VersionsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "versions_deduplicated_total",
		Help:      "Total number of version creations short-circuited by content hash dedup.",
	})

	// ConflictsDetected 检测到并落库的冲突总数
	ConflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflicts_detected_total",
		Help:      "Total number of conflicts materialized by the detector.",
	})

	// ConflictsResolved 按策略统计的冲突解决总数
	ConflictsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflicts_resolved_total",
		Help:      "Total number of conflicts resolved, labelled by strategy.",
	}, []string{"strategy"})

	// RealtimeCollisionSignals 实时检查发出的碰撞预警次数
	RealtimeCollisionSignals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_collision_signals_total",
		Help:      "Total number of real-time collision signals emitted to editing peers.",
	})

	// WebsocketConnections 当前 WebSocket 连接数
	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Current number of websocket connections.",
	})

	// HistoryEntries 追加的历史记录条数
	HistoryEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_entries_total",
		Help:      "Total number of history entries appended.",
	})
)
