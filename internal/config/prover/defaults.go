package prover

import "runtime"

// 证明编排默认配置值
const (
	// defaultProofTimeout 单个证明的最长计算时间
	defaultProofTimeout = "30m"

	// defaultRestartSucceeded 重复提交已成功的请求时返回已有证明
	defaultRestartSucceeded = false

	// defaultNativeQueueSize 原生后端等待队列长度
	defaultNativeQueueSize = 256

	// defaultRemoteRequestTimeout 远程后端单次HTTP请求超时
	defaultRemoteRequestTimeout = "15m"

	// defaultRemoteRetryMax 远程后端最大重试次数
	defaultRemoteRetryMax = 3

	// 默认请求
	defaultNetwork       = "taiko_mainnet"
	defaultL1Network     = "ethereum"
	defaultProofType     = "native"
	defaultBlobProofType = "kzg_versioned_hash"
)

// defaultNativeWorkers 原生后端并发数
func defaultNativeWorkers() int {
	return runtime.NumCPU()
}

// defaultChainSpecs 内置链规格（网络名 -> chain id）
func defaultChainSpecs() map[string]uint64 {
	return map[string]uint64{
		"ethereum":      1,
		"holesky":       17000,
		"taiko_mainnet": 167000,
		"taiko_a7":      167009,
	}
}
