package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	proverconfig "github.com/weisyn/proofhost/internal/config/prover"
	"github.com/weisyn/proofhost/internal/testutil"
	"github.com/weisyn/proofhost/pkg/types"
)

func newTestRemote(t *testing.T, kind types.ProofType, handler http.HandlerFunc, retryMax int) *RemoteBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := NewRemoteBackend(kind, proverconfig.RemoteOptions{
		Endpoint:       srv.URL + "/",
		RequestTimeout: 5 * time.Second,
		RetryMax:       retryMax,
	}, testutil.NewTestLogger())
	b.client.RetryWaitMin = time.Millisecond
	b.client.RetryWaitMax = 5 * time.Millisecond
	return b
}

// TestRemoteBackend_Success 测试远程证明成功
func TestRemoteBackend_Success(t *testing.T) {
	var received map[string]json.RawMessage
	b := newTestRemote(t, types.ProofTypeSgx, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proof", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"proof":"0x0102","input":"0x00000000000000000000000000000000000000000000000000000000000000aa","quote":"0x03"}`))
	}, 0)

	req := testutil.NewTestRequest(10, types.ProofTypeSgx)
	req.ProverArgs.Sgx = json.RawMessage(`{"instance_id":7}`)

	proof, err := waitHandle(t, b.Compute(context.Background(), req))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, []byte(proof.Proof))
	assert.Equal(t, []byte{0x03}, []byte(proof.Quote))
	assert.Equal(t, common.HexToHash("0xaa"), proof.Input)
	assert.Equal(t, types.ProofTypeSgx, proof.ProofType)

	assert.JSONEq(t, `{"instance_id":7}`, string(received["options"]))
	assert.JSONEq(t, `10`, string(received["block_number"]))
}

// TestRemoteBackend_ErrorResponse 测试远程错误响应
func TestRemoteBackend_ErrorResponse(t *testing.T) {
	b := newTestRemote(t, types.ProofTypeSp1, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_request","message":"block not found"}`))
	}, 2)

	_, err := waitHandle(t, b.Compute(context.Background(), testutil.NewTestRequest(1, types.ProofTypeSp1)))
	require.ErrorIs(t, err, ErrRemoteProver)
	assert.Contains(t, err.Error(), "block not found")
	assert.Contains(t, err.Error(), "status=400")
}

// TestRemoteBackend_RetryOnServerError 测试5xx重试
func TestRemoteBackend_RetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	b := newTestRemote(t, types.ProofTypeRisc0, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"proof":"0x01","input":"0x00000000000000000000000000000000000000000000000000000000000000bb"}`))
	}, 3)

	proof, err := waitHandle(t, b.Compute(context.Background(), testutil.NewTestRequest(1, types.ProofTypeRisc0)))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, types.ProofTypeRisc0, proof.ProofType)
}

// TestRemoteBackend_Cancel 测试取消中止请求
func TestRemoteBackend_Cancel(t *testing.T) {
	started := make(chan struct{})
	b := newTestRemote(t, types.ProofTypeSgx, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}, 0)

	h := b.Compute(context.Background(), testutil.NewTestRequest(1, types.ProofTypeSgx))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("远程请求未发出")
	}

	h.Cancel()
	_, err := waitHandle(t, h)
	require.ErrorIs(t, err, ErrCancelled)
}
