package api

// API服务默认配置值
const (
	defaultHTTPEnabled = true
	defaultHTTPHost    = "0.0.0.0"

	// defaultHTTPPort 默认监听端口
	defaultHTTPPort = 8080

	// defaultV1WaitTimeout v1 同步接口等待证明的上限
	defaultV1WaitTimeout = "10m"

	defaultMetricsEnabled = true

	// 服务器超时
	defaultReadTimeout     = "30s"
	defaultShutdownTimeout = "10s"
)
