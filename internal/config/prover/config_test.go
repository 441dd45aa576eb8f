package prover

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configtypes "github.com/weisyn/proofhost/pkg/types"
)

// TestNew_Defaults 测试未提供用户配置时的默认值
func TestNew_Defaults(t *testing.T) {
	cfg, err := New(nil)
	require.NoError(t, err)

	opts := cfg.GetOptions()
	assert.Equal(t, 30*time.Minute, opts.ProofTimeout)
	assert.False(t, opts.RestartSucceeded)
	assert.Greater(t, opts.Native.Workers, 0)
	assert.Empty(t, opts.Remote)
	assert.Equal(t, uint64(167000), opts.ChainSpecs["taiko_mainnet"])
	require.NotNil(t, opts.DefaultRequest.ProofType)
	assert.Equal(t, "native", *opts.DefaultRequest.ProofType)
}

// TestNew_UserOverrides 测试JSON用户配置覆盖默认值
func TestNew_UserOverrides(t *testing.T) {
	raw := `{
		"proof_timeout": "2m",
		"restart_succeeded": true,
		"default_request": {"network": "taiko_a7", "prover": "0x7a27658d4b1b6f4f2a1d1b0c0ddd6e5d3ed6cbb1"},
		"chain_specs": {"Devnet": 167001},
		"native": {"workers": 2, "simulated_latency": "50ms"},
		"remote": {
			"sgx": {"endpoint": "http://sgx.local:9090/", "retry_max": 1},
			"sp1": {"endpoint": ""}
		}
	}`
	var user configtypes.UserProverConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &user))

	cfg, err := New(&user)
	require.NoError(t, err)
	opts := cfg.GetOptions()

	assert.Equal(t, 2*time.Minute, opts.ProofTimeout)
	assert.True(t, opts.RestartSucceeded)
	assert.Equal(t, "taiko_a7", *opts.DefaultRequest.Network)
	assert.Equal(t, "ethereum", *opts.DefaultRequest.L1Network, "未覆盖的默认字段保留")
	assert.Equal(t, uint64(167001), opts.ChainSpecs["devnet"])
	assert.Equal(t, 2, opts.Native.Workers)
	assert.Equal(t, 50*time.Millisecond, opts.Native.SimulatedLatency)

	require.Contains(t, opts.Remote, configtypes.ProofTypeSgx)
	assert.Equal(t, "http://sgx.local:9090", opts.Remote[configtypes.ProofTypeSgx].Endpoint)
	assert.Equal(t, 1, opts.Remote[configtypes.ProofTypeSgx].RetryMax)
	assert.NotContains(t, opts.Remote, configtypes.ProofTypeSp1, "空endpoint不注册")
}

// TestNew_InvalidValues 测试非法配置返回错误
func TestNew_InvalidValues(t *testing.T) {
	bad := "soon"
	_, err := New(&configtypes.UserProverConfig{ProofTimeout: &bad})
	require.Error(t, err)

	zero := 0
	_, err = New(&configtypes.UserProverConfig{Native: &configtypes.UserNativeBackendConfig{Workers: &zero}})
	require.Error(t, err)

	endpoint := "http://x"
	_, err = New(&configtypes.UserProverConfig{Remote: map[string]*configtypes.UserRemoteBackendConfig{
		"plonky": {Endpoint: &endpoint},
	}})
	require.Error(t, err)
}
