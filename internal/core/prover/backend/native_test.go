package backend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	proverconfig "github.com/weisyn/proofhost/internal/config/prover"
	"github.com/weisyn/proofhost/internal/testutil"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

var testChainSpecs = map[string]uint64{"taiko_mainnet": 167000, "ethereum": 1}

func newTestNative(t *testing.T, workers, queue int, latency time.Duration) *NativeBackend {
	t.Helper()
	b := NewNativeBackend(proverconfig.NativeOptions{
		Workers:          workers,
		QueueSize:        queue,
		SimulatedLatency: latency,
	}, testChainSpecs, testutil.NewTestLogger())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func waitHandle(t *testing.T, h prover.Handle) (*types.Proof, error) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("句柄未在预期时间内完成")
	}
	return h.Result()
}

// TestNativeBackend_Commitment 测试公共输入承诺
func TestNativeBackend_Commitment(t *testing.T) {
	b := newTestNative(t, 2, 8, 0)

	p1, err := waitHandle(t, b.Compute(context.Background(), testutil.NewTestRequest(100, types.ProofTypeNative)))
	require.NoError(t, err)
	p2, err := waitHandle(t, b.Compute(context.Background(), testutil.NewTestRequest(100, types.ProofTypeNative)))
	require.NoError(t, err)
	p3, err := waitHandle(t, b.Compute(context.Background(), testutil.NewTestRequest(101, types.ProofTypeNative)))
	require.NoError(t, err)

	assert.Equal(t, types.ProofTypeNative, p1.ProofType)
	assert.Empty(t, p1.Proof)
	assert.NotEqual(t, [32]byte{}, [32]byte(p1.Input))
	assert.Equal(t, p1.Input, p2.Input)
	assert.NotEqual(t, p1.Input, p3.Input)

	stats := b.Stats()
	assert.Equal(t, int64(3), stats.Succeeded)
	assert.Equal(t, 2, stats.HealthyWorkers)
}

// TestNativeBackend_UnknownNetwork 测试缺少链规格
func TestNativeBackend_UnknownNetwork(t *testing.T) {
	b := newTestNative(t, 1, 4, 0)
	req := testutil.NewTestRequest(1, types.ProofTypeNative)
	req.Network = "unknown_net"

	_, err := waitHandle(t, b.Compute(context.Background(), req))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown_net")
}

// TestNativeBackend_CancelWhileRunning 测试执行中取消
func TestNativeBackend_CancelWhileRunning(t *testing.T) {
	b := newTestNative(t, 1, 4, time.Minute)

	h := b.Compute(context.Background(), testutil.NewTestRequest(1, types.ProofTypeNative))
	require.Eventually(t, func() bool { return b.Stats().Queued == 0 }, time.Second, 5*time.Millisecond)

	h.Cancel()
	_, err := waitHandle(t, h)
	require.ErrorIs(t, err, ErrCancelled)
}

// TestNativeBackend_CancelWhileQueued 测试排队中取消立即结束
func TestNativeBackend_CancelWhileQueued(t *testing.T) {
	b := newTestNative(t, 1, 4, time.Minute)

	running := b.Compute(context.Background(), testutil.NewTestRequest(1, types.ProofTypeNative))
	require.Eventually(t, func() bool { return b.Stats().Queued == 0 }, time.Second, 5*time.Millisecond)

	queued := b.Compute(context.Background(), testutil.NewTestRequest(2, types.ProofTypeNative))
	queued.Cancel()
	_, err := waitHandle(t, queued)
	require.ErrorIs(t, err, ErrCancelled)

	_, err = running.Result()
	assert.ErrorIs(t, err, ErrPending)
}

// TestNativeBackend_ParentTimeout 测试上层超时原因透传
func TestNativeBackend_ParentTimeout(t *testing.T) {
	b := newTestNative(t, 1, 4, time.Minute)
	timeoutErr := errors.New("proof timed out")

	ctx, cancel := context.WithTimeoutCause(context.Background(), 20*time.Millisecond, timeoutErr)
	defer cancel()

	_, err := waitHandle(t, b.Compute(ctx, testutil.NewTestRequest(1, types.ProofTypeNative)))
	require.ErrorIs(t, err, timeoutErr)
}

// TestNativeBackend_QueueFull 测试队列已满
func TestNativeBackend_QueueFull(t *testing.T) {
	b := newTestNative(t, 1, 1, time.Minute)

	b.Compute(context.Background(), testutil.NewTestRequest(1, types.ProofTypeNative))
	require.Eventually(t, func() bool { return b.Stats().Queued == 0 }, time.Second, 5*time.Millisecond)
	b.Compute(context.Background(), testutil.NewTestRequest(2, types.ProofTypeNative))

	_, err := waitHandle(t, b.Compute(context.Background(), testutil.NewTestRequest(3, types.ProofTypeNative)))
	require.ErrorIs(t, err, ErrQueueFull)
}

// TestNativeBackend_RequestLatency 测试请求级模拟耗时
func TestNativeBackend_RequestLatency(t *testing.T) {
	b := newTestNative(t, 1, 4, time.Minute)
	req := testutil.NewTestRequest(1, types.ProofTypeNative)
	req.ProverArgs.Native = json.RawMessage(`{"simulated_latency":"1ms"}`)

	_, err := waitHandle(t, b.Compute(context.Background(), req))
	require.NoError(t, err)

	req.ProverArgs.Native = json.RawMessage(`{"simulated_latency":"soon"}`)
	_, err = waitHandle(t, b.Compute(context.Background(), req))
	require.Error(t, err)
}

// TestNativeBackend_Close 测试关闭后提交失败
func TestNativeBackend_Close(t *testing.T) {
	b := newTestNative(t, 1, 4, 0)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := waitHandle(t, b.Compute(context.Background(), testutil.NewTestRequest(1, types.ProofTypeNative)))
	require.ErrorIs(t, err, ErrBackendClosed)
}
