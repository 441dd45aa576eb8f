package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitypes "github.com/weisyn/proofhost/internal/api/http/types"
	apiconfig "github.com/weisyn/proofhost/internal/config/api"
	proverconfig "github.com/weisyn/proofhost/internal/config/prover"
	"github.com/weisyn/proofhost/internal/core/prover/backend"
	"github.com/weisyn/proofhost/internal/core/prover/ledger"
	"github.com/weisyn/proofhost/internal/core/prover/orchestrator"
	"github.com/weisyn/proofhost/internal/core/prover/request"
	"github.com/weisyn/proofhost/internal/testutil"
	"github.com/weisyn/proofhost/pkg/types"
)

const testProver = "0x7a27658d4b1b6f4f2a1d1b0c0ddd6e5d3ed6cbb1"

type apiResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, v1Wait time.Duration) *Server {
	t.Helper()

	chainSpecs := map[string]uint64{"taiko_mainnet": 167000, "ethereum": 1}
	network, l1Network, proofType := "taiko_mainnet", "ethereum", "native"
	defaults := types.ProofRequestOpt{
		Network:   &network,
		L1Network: &l1Network,
		ProofType: &proofType,
	}

	logger := testutil.NewTestLogger()
	native := backend.NewNativeBackend(proverconfig.NativeOptions{Workers: 2, QueueSize: 16}, chainSpecs, logger)
	table := backend.NewTable()
	require.NoError(t, table.Register(native))

	orch := orchestrator.New(ledger.New(), table, nil, logger, orchestrator.Options{PollInterval: 5 * time.Millisecond})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = orch.Close(ctx)
		_ = native.Close()
	})

	registry := prometheus.NewRegistry()
	return NewServer(ServerDeps{
		Options: &apiconfig.APIOptions{
			HTTPEnabled:    true,
			HTTPHost:       "127.0.0.1",
			V1WaitTimeout:  v1Wait,
			MetricsEnabled: true,
		},
		Orchestrator: orch,
		Backends:     table,
		Requests:     request.NewBuilder(defaults, chainSpecs),
		Logger:       logger,
		Registerer:   registry,
		Gatherer:     registry,
	})
}

func proofBody(block uint64, latency string) map[string]interface{} {
	return map[string]interface{}{
		"block_number": block,
		"prover":       testProver,
		"prover_args": map[string]interface{}{
			"native": map[string]string{"simulated_latency": latency},
		},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func submitStatus(t *testing.T, h http.Handler, body interface{}) types.TaskStatus {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/v2/proof", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	var data apitypes.ProofStatusData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.Status
}

func report(t *testing.T, h http.Handler) []types.TaskReport {
	t.Helper()
	w := doJSON(t, h, http.MethodGet, "/v2/proof/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []types.TaskReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	return reports
}

func submitProof(t *testing.T, h http.Handler, body interface{}) *types.Proof {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/v2/proof", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data apitypes.ProofData
	require.NoError(t, json.Unmarshal(decodeResponse(t, w).Data, &data))
	return data.Proof
}

// TestServer_ProofLifecycle 测试 v1 提交、v2 提交/轮询/取消/重启/报告/清理的完整流程
func TestServer_ProofLifecycle(t *testing.T) {
	h := newTestServer(t, 5*time.Second).Handler()

	// v1 同步返回证明
	fast := proofBody(10, "0s")
	w := doJSON(t, h, http.MethodPost, "/v1/proof", fast)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	assert.Equal(t, apitypes.StatusOK, resp.Status)
	var proof types.Proof
	require.NoError(t, json.Unmarshal(resp.Data, &proof))
	assert.Equal(t, types.ProofTypeNative, proof.ProofType)
	assert.NotEqual(t, [32]byte{}, [32]byte(proof.Input))

	// 同一请求经 v2 提交仍是新登记
	assert.Equal(t, types.TaskStatusRegistered, submitStatus(t, h, fast))

	// v2 登记后进入计算
	slow := proofBody(20, "10s")
	assert.Equal(t, types.TaskStatusRegistered, submitStatus(t, h, slow))
	assert.Eventually(t, func() bool {
		return submitStatus(t, h, slow) == types.TaskStatusWorkInProgress
	}, 2*time.Second, 10*time.Millisecond)

	w = doJSON(t, h, http.MethodPost, "/v2/proof/cancel", slow)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	// 取消完成后重新提交即重启
	assert.Eventually(t, func() bool {
		return submitStatus(t, h, slow) == types.TaskStatusRegistered
	}, 2*time.Second, 10*time.Millisecond)

	reports := report(t, h)
	require.Len(t, reports, 2)

	// 再次取消，全部任务进入终态后清理
	assert.Eventually(t, func() bool {
		return doJSON(t, h, http.MethodPost, "/v2/proof/cancel", slow).Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		for _, r := range report(t, h) {
			if !r.Status.IsTerminal() {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	w = doJSON(t, h, http.MethodPost, "/v2/proof/prune", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","data":{"removed":2}}`, w.Body.String())

	w = doJSON(t, h, http.MethodGet, "/v2/proof/report", nil)
	assert.Equal(t, "[]", w.Body.String())
}

// TestServer_V1DoesNotRegisterTask 测试 v1 的计算不写入台账
func TestServer_V1DoesNotRegisterTask(t *testing.T) {
	h := newTestServer(t, 5*time.Second).Handler()
	body := proofBody(15, "0s")

	for i := 0; i < 2; i++ {
		w := doJSON(t, h, http.MethodPost, "/v1/proof", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	assert.Empty(t, report(t, h))

	w := doJSON(t, h, http.MethodPost, "/v2/proof", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"ok","data":{"status":"registered"}}`, w.Body.String())
}

// TestServer_V2ReturnsStoredProof 测试已成功任务的重复提交直接返回证明
func TestServer_V2ReturnsStoredProof(t *testing.T) {
	h := newTestServer(t, 5*time.Second).Handler()
	body := proofBody(30, "0s")

	assert.Equal(t, types.TaskStatusRegistered, submitStatus(t, h, body))

	var proof *types.Proof
	require.Eventually(t, func() bool {
		proof = submitProof(t, h, body)
		return proof != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, types.ProofTypeNative, proof.ProofType)
}

// TestServer_Errors 测试错误类别与状态码映射
func TestServer_Errors(t *testing.T) {
	h := newTestServer(t, 5*time.Second).Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
		kind   apitypes.ErrorKind
	}{
		{
			name:   "未注册的后端",
			method: http.MethodPost,
			path:   "/v2/proof",
			body:   map[string]interface{}{"block_number": 1, "prover": testProver, "proof_type": "sgx"},
			code:   http.StatusBadRequest,
			kind:   apitypes.ErrorKindUnknownBackend,
		},
		{
			name:   "v1 未注册的后端",
			method: http.MethodPost,
			path:   "/v1/proof",
			body:   map[string]interface{}{"block_number": 1, "prover": testProver, "proof_type": "risc0"},
			code:   http.StatusBadRequest,
			kind:   apitypes.ErrorKindUnknownBackend,
		},
		{
			name:   "缺少区块号",
			method: http.MethodPost,
			path:   "/v2/proof",
			body:   map[string]interface{}{"prover": testProver},
			code:   http.StatusBadRequest,
			kind:   apitypes.ErrorKindInvalidRequest,
		},
		{
			name:   "请求体不是JSON对象",
			method: http.MethodPost,
			path:   "/v1/proof",
			body:   "not an object",
			code:   http.StatusBadRequest,
			kind:   apitypes.ErrorKindInvalidRequest,
		},
		{
			name:   "取消不存在的任务",
			method: http.MethodPost,
			path:   "/v2/proof/cancel",
			body:   proofBody(99, "0s"),
			code:   http.StatusNotFound,
			kind:   apitypes.ErrorKindTaskNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, tt.method, tt.path, tt.body)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			resp := decodeResponse(t, w)
			assert.Equal(t, apitypes.StatusError, resp.Status)
			assert.Equal(t, string(tt.kind), resp.Error)
			assert.NotEmpty(t, resp.Message)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

// TestServer_CancelTerminal 测试取消已完成任务返回冲突
func TestServer_CancelTerminal(t *testing.T) {
	h := newTestServer(t, 5*time.Second).Handler()
	body := proofBody(40, "0s")

	require.Equal(t, types.TaskStatusRegistered, submitStatus(t, h, body))
	require.Eventually(t, func() bool {
		return submitProof(t, h, body) != nil
	}, 2*time.Second, 10*time.Millisecond)

	w := doJSON(t, h, http.MethodPost, "/v2/proof/cancel", body)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(apitypes.ErrorKindAlreadyTerminal), decodeResponse(t, w).Error)
}

// TestServer_V1Timeout 测试 v1 等待超时
func TestServer_V1Timeout(t *testing.T) {
	h := newTestServer(t, 50*time.Millisecond).Handler()

	w := doJSON(t, h, http.MethodPost, "/v1/proof", proofBody(50, "10s"))
	require.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
	assert.Equal(t, string(apitypes.ErrorKindTimeout), decodeResponse(t, w).Error)
}

// TestServer_HealthAndMetrics 测试健康检查与指标端点
func TestServer_HealthAndMetrics(t *testing.T) {
	h := newTestServer(t, 5*time.Second).Handler()

	w := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health apitypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, []types.ProofType{types.ProofTypeNative}, health.Backends)
	assert.Equal(t, 0, health.Tasks)

	w = doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "proofhost_api_requests_total")
}

// TestServer_StartStop 测试监听与优雅关闭
func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t, time.Second)
	s.options.HTTPPort = 0

	require.NoError(t, s.Start())
	require.Error(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/health/live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
}
