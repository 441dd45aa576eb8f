package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventbus "github.com/weisyn/proofhost/internal/core/infrastructure/event"
	"github.com/weisyn/proofhost/internal/testutil"
	"github.com/weisyn/proofhost/pkg/types"
)

// TestCollector_CountsEvents 测试事件驱动的计数
func TestCollector_CountsEvents(t *testing.T) {
	bus := eventbus.New(testutil.NewTestLogger())
	defer bus.Close()

	c := NewCollector(bus, testutil.NewTestLogger())
	require.NoError(t, c.Start())
	defer c.Stop()

	submitted := tasksSubmittedTotal.WithLabelValues("sp1", "registered")
	cancelled := taskTransitionsTotal.WithLabelValues("cancelled")
	beforeSubmitted := promtestutil.ToFloat64(submitted)
	beforeCancelled := promtestutil.ToFloat64(cancelled)

	bus.Publish(types.EventTypeTaskSubmitted, types.TaskSubmittedEvent{
		ProofType: types.ProofTypeSp1,
		Outcome:   types.SubmitOutcomeRegistered,
	})
	bus.Publish(types.EventTypeTaskStatusChanged, types.TaskStatusChangedEvent{
		ProofType: types.ProofTypeSp1,
		From:      types.TaskStatusCancellationInProgress,
		To:        types.TaskStatusCancelled,
		Elapsed:   3 * time.Second,
	})

	assert.Equal(t, beforeSubmitted+1, promtestutil.ToFloat64(submitted))
	assert.Equal(t, beforeCancelled+1, promtestutil.ToFloat64(cancelled))
	assert.GreaterOrEqual(t, promtestutil.CollectAndCount(taskDurationSeconds), 1)
}

// TestCollector_Stop 测试取消订阅后不再计数
func TestCollector_Stop(t *testing.T) {
	bus := eventbus.New(testutil.NewTestLogger())
	defer bus.Close()

	c := NewCollector(bus, nil)
	require.NoError(t, c.Start())
	c.Stop()

	counter := taskTransitionsTotal.WithLabelValues("failed")
	before := promtestutil.ToFloat64(counter)
	bus.Publish(types.EventTypeTaskStatusChanged, types.TaskStatusChangedEvent{To: types.TaskStatusFailed})
	assert.Equal(t, before, promtestutil.ToFloat64(counter))
}

// TestLedgerCollector 测试台账快照指标
func TestLedgerCollector(t *testing.T) {
	c := NewLedgerCollector(func() map[types.TaskStatus]int {
		return map[types.TaskStatus]int{
			types.TaskStatusWorkInProgress: 2,
			types.TaskStatusSuccess:        1,
		}
	})

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP proofhost_ledger_records Number of task records in the ledger by status
# TYPE proofhost_ledger_records gauge
proofhost_ledger_records{status="cancellation_in_progress"} 0
proofhost_ledger_records{status="cancelled"} 0
proofhost_ledger_records{status="failed"} 0
proofhost_ledger_records{status="registered"} 0
proofhost_ledger_records{status="success"} 1
proofhost_ledger_records{status="work_in_progress"} 2
`
	require.NoError(t, promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "proofhost_ledger_records"))
}
