// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	// 应用程序基本信息
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	// 运行环境：dev | test | prod
	Environment *string `json:"environment,omitempty"`

	// API服务配置
	API *UserAPIConfig `json:"api,omitempty"`

	// 证明编排配置
	Prover *UserProverConfig `json:"prover,omitempty"`

	// 存储配置
	Storage *UserStorageConfig `json:"storage,omitempty"`

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`
}

// UserAPIConfig 用户API配置
// 对应配置文件中的 api 字段
type UserAPIConfig struct {
	HTTPEnabled *bool   `json:"http_enabled,omitempty"` // 是否启用HTTP服务（默认true）
	HTTPHost    *string `json:"http_host,omitempty"`    // 监听地址
	HTTPPort    *int    `json:"http_port,omitempty"`    // HTTP监听端口

	// v1 接口同步等待证明的最长时间，如 "10m"
	V1WaitTimeout *string `json:"v1_wait_timeout,omitempty"`

	// 是否暴露 /metrics
	MetricsEnabled *bool `json:"metrics_enabled,omitempty"`
}

// UserProverConfig 用户证明编排配置
// 对应配置文件中的 prover 字段
type UserProverConfig struct {
	// 单个证明的超时时间，如 "30m"；"0" 表示不限制
	ProofTimeout *string `json:"proof_timeout,omitempty"`

	// 对已成功的任务重复提交时是否重新计算（默认false，直接返回已有证明）
	RestartSucceeded *bool `json:"restart_succeeded,omitempty"`

	// 默认请求，API请求中未出现的字段取这里的值
	DefaultRequest *ProofRequestOpt `json:"default_request,omitempty"`

	// 额外的链规格，按网络名索引
	ChainSpecs map[string]uint64 `json:"chain_specs,omitempty"`

	// 原生后端
	Native *UserNativeBackendConfig `json:"native,omitempty"`

	// 远程后端（sgx/sp1/risc0），未配置 endpoint 的后端不注册
	Remote map[string]*UserRemoteBackendConfig `json:"remote,omitempty"`
}

// UserNativeBackendConfig 原生后端配置
type UserNativeBackendConfig struct {
	Workers          *int    `json:"workers,omitempty"`           // 并发计算数
	QueueSize        *int    `json:"queue_size,omitempty"`        // 等待队列长度
	SimulatedLatency *string `json:"simulated_latency,omitempty"` // 模拟执行耗时
}

// UserRemoteBackendConfig 远程证明后端配置
type UserRemoteBackendConfig struct {
	Endpoint       *string `json:"endpoint,omitempty"`        // 远程证明服务地址
	RequestTimeout *string `json:"request_timeout,omitempty"` // 单次HTTP请求超时
	RetryMax       *int    `json:"retry_max,omitempty"`       // 最大重试次数
}

// UserStorageConfig 用户存储配置
type UserStorageConfig struct {
	// 是否将任务台账持久化到 badger
	PersistLedger *bool   `json:"persist_ledger,omitempty"`
	DataRoot      *string `json:"data_root,omitempty"` // 数据根目录（data_root）
}

// UserLogConfig 用户日志配置
// 只包含JSON配置文件中实际出现的字段
type UserLogConfig struct {
	Level    *string `json:"level,omitempty"`     // 日志级别：debug, info, warn, error, fatal
	FilePath *string `json:"file_path,omitempty"` // 日志文件路径
}
