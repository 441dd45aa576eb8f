package prover

import (
	"fmt"
	"strings"
	"time"

	configtypes "github.com/weisyn/proofhost/pkg/types"
)

// NativeOptions 原生后端配置
type NativeOptions struct {
	Workers          int           `json:"workers"`
	QueueSize        int           `json:"queue_size"`
	SimulatedLatency time.Duration `json:"simulated_latency"`
}

// RemoteOptions 远程后端配置
type RemoteOptions struct {
	Endpoint       string        `json:"endpoint"`
	RequestTimeout time.Duration `json:"request_timeout"`
	RetryMax       int           `json:"retry_max"`
}

// ProverOptions 证明编排配置选项
type ProverOptions struct {
	// 单个证明超时，0 表示不限制
	ProofTimeout time.Duration `json:"proof_timeout"`

	// 已成功任务被重复提交时是否重新计算
	RestartSucceeded bool `json:"restart_succeeded"`

	// 默认请求
	DefaultRequest configtypes.ProofRequestOpt `json:"default_request"`

	// 网络名 -> chain id
	ChainSpecs map[string]uint64 `json:"chain_specs"`

	Native NativeOptions `json:"native"`

	// 仅包含配置了 endpoint 的远程后端
	Remote map[configtypes.ProofType]RemoteOptions `json:"remote"`
}

// Config 证明编排配置实现
type Config struct {
	options *ProverOptions
}

// New 创建证明编排配置实现
func New(userConfig *configtypes.UserProverConfig) (*Config, error) {
	options := createDefaultProverOptions()
	if userConfig != nil {
		if err := applyUserProverConfig(options, userConfig); err != nil {
			return nil, err
		}
	}
	return &Config{options: options}, nil
}

// NewFromOptions 从ProverOptions创建配置实现
func NewFromOptions(options *ProverOptions) *Config {
	return &Config{options: options}
}

func createDefaultProverOptions() *ProverOptions {
	timeout, _ := time.ParseDuration(defaultProofTimeout)
	network, l1Network := defaultNetwork, defaultL1Network
	proofType, blobProofType := defaultProofType, defaultBlobProofType
	return &ProverOptions{
		ProofTimeout:     timeout,
		RestartSucceeded: defaultRestartSucceeded,
		DefaultRequest: configtypes.ProofRequestOpt{
			Network:       &network,
			L1Network:     &l1Network,
			ProofType:     &proofType,
			BlobProofType: &blobProofType,
		},
		ChainSpecs: defaultChainSpecs(),
		Native: NativeOptions{
			Workers:   defaultNativeWorkers(),
			QueueSize: defaultNativeQueueSize,
		},
		Remote: make(map[configtypes.ProofType]RemoteOptions),
	}
}

func applyUserProverConfig(options *ProverOptions, user *configtypes.UserProverConfig) error {
	if user.ProofTimeout != nil {
		d, err := time.ParseDuration(*user.ProofTimeout)
		if err != nil {
			return fmt.Errorf("prover.proof_timeout 无效: %w", err)
		}
		options.ProofTimeout = d
	}
	if user.RestartSucceeded != nil {
		options.RestartSucceeded = *user.RestartSucceeded
	}
	if user.DefaultRequest != nil {
		options.DefaultRequest = options.DefaultRequest.Merge(*user.DefaultRequest)
	}
	for name, chainID := range user.ChainSpecs {
		options.ChainSpecs[strings.ToLower(strings.TrimSpace(name))] = chainID
	}

	if native := user.Native; native != nil {
		if native.Workers != nil {
			if *native.Workers <= 0 {
				return fmt.Errorf("prover.native.workers 必须大于0: %d", *native.Workers)
			}
			options.Native.Workers = *native.Workers
		}
		if native.QueueSize != nil {
			if *native.QueueSize < 0 {
				return fmt.Errorf("prover.native.queue_size 不能为负: %d", *native.QueueSize)
			}
			options.Native.QueueSize = *native.QueueSize
		}
		if native.SimulatedLatency != nil {
			d, err := time.ParseDuration(*native.SimulatedLatency)
			if err != nil {
				return fmt.Errorf("prover.native.simulated_latency 无效: %w", err)
			}
			options.Native.SimulatedLatency = d
		}
	}

	for name, remote := range user.Remote {
		if remote == nil || remote.Endpoint == nil || *remote.Endpoint == "" {
			continue
		}
		proofType, err := configtypes.ParseProofType(name)
		if err != nil {
			return fmt.Errorf("prover.remote: %w", err)
		}
		if proofType == configtypes.ProofTypeNative {
			return fmt.Errorf("prover.remote: native 后端不能配置为远程")
		}
		opts := RemoteOptions{
			Endpoint:       strings.TrimRight(*remote.Endpoint, "/"),
			RetryMax:       defaultRemoteRetryMax,
			RequestTimeout: mustDuration(defaultRemoteRequestTimeout),
		}
		if remote.RequestTimeout != nil {
			d, err := time.ParseDuration(*remote.RequestTimeout)
			if err != nil {
				return fmt.Errorf("prover.remote.%s.request_timeout 无效: %w", name, err)
			}
			opts.RequestTimeout = d
		}
		if remote.RetryMax != nil {
			opts.RetryMax = *remote.RetryMax
		}
		options.Remote[proofType] = opts
	}
	return nil
}

// GetOptions 获取完整的证明编排配置选项
func (c *Config) GetOptions() *ProverOptions {
	return c.options
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
