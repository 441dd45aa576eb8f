// Package metrics 提供证明任务相关的监控指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/types"
)

// ============================================================================
//                          Prometheus 监控指标
// ============================================================================

const namespace = "proofhost"

var (
	// tasksSubmittedTotal 提交总数（按证明类型与处理结果）
	tasksSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "submitted_total",
			Help:      "Total number of proof submissions by proof type and outcome",
		},
		[]string{"proof_type", "outcome"},
	)

	// taskTransitionsTotal 状态迁移总数（按目标状态）
	taskTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "transitions_total",
			Help:      "Total number of task status transitions by target status",
		},
		[]string{"status"},
	)

	// taskDurationSeconds 从登记到终态的耗时
	taskDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Time from registration to terminal status in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 16), // 0.1s ~ 54min
		},
		[]string{"proof_type", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		tasksSubmittedTotal,
		taskTransitionsTotal,
		taskDurationSeconds,
	)
}

// ============================================================================
//                          事件订阅
// ============================================================================

// Collector 订阅任务事件并更新指标
type Collector struct {
	bus    event.EventBus
	logger log.Logger
}

// NewCollector 创建指标收集器
func NewCollector(bus event.EventBus, logger log.Logger) *Collector {
	return &Collector{bus: bus, logger: logger}
}

// Start 订阅任务事件
func (c *Collector) Start() error {
	if err := c.bus.Subscribe(types.EventTypeTaskStatusChanged, c.onStatusChanged); err != nil {
		return err
	}
	if err := c.bus.Subscribe(types.EventTypeTaskSubmitted, c.onSubmitted); err != nil {
		_ = c.bus.Unsubscribe(types.EventTypeTaskStatusChanged, c.onStatusChanged)
		return err
	}
	if c.logger != nil {
		c.logger.Debug("证明任务指标收集器已订阅事件")
	}
	return nil
}

// Stop 取消订阅
func (c *Collector) Stop() {
	_ = c.bus.Unsubscribe(types.EventTypeTaskStatusChanged, c.onStatusChanged)
	_ = c.bus.Unsubscribe(types.EventTypeTaskSubmitted, c.onSubmitted)
}

func (c *Collector) onStatusChanged(e types.TaskStatusChangedEvent) {
	taskTransitionsTotal.WithLabelValues(string(e.To)).Inc()
	if e.To.IsTerminal() {
		taskDurationSeconds.WithLabelValues(string(e.ProofType), string(e.To)).Observe(e.Elapsed.Seconds())
	}
}

func (c *Collector) onSubmitted(e types.TaskSubmittedEvent) {
	tasksSubmittedTotal.WithLabelValues(string(e.ProofType), string(e.Outcome)).Inc()
}

// ============================================================================
//                          台账快照指标
// ============================================================================

// allStatuses 导出顺序固定的全部状态
var allStatuses = []types.TaskStatus{
	types.TaskStatusRegistered,
	types.TaskStatusWorkInProgress,
	types.TaskStatusSuccess,
	types.TaskStatusFailed,
	types.TaskStatusCancellationInProgress,
	types.TaskStatusCancelled,
}

// LedgerCollector 抓取时读取台账各状态的记录数
type LedgerCollector struct {
	counts func() map[types.TaskStatus]int
	desc   *prometheus.Desc
}

// NewLedgerCollector 创建台账指标
func NewLedgerCollector(counts func() map[types.TaskStatus]int) *LedgerCollector {
	return &LedgerCollector{
		counts: counts,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ledger", "records"),
			"Number of task records in the ledger by status",
			[]string{"status"}, nil,
		),
	}
}

// Describe 实现 prometheus.Collector
func (c *LedgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect 实现 prometheus.Collector
func (c *LedgerCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.counts()
	for _, status := range allStatuses {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(counts[status]), string(status))
	}
}

var _ prometheus.Collector = (*LedgerCollector)(nil)
