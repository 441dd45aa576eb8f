package api

import (
	"fmt"
	"net"
	"strconv"
	"time"

	configtypes "github.com/weisyn/proofhost/pkg/types"
)

// APIOptions API服务配置选项
type APIOptions struct {
	HTTPEnabled     bool          `json:"http_enabled"`
	HTTPHost        string        `json:"http_host"`
	HTTPPort        int           `json:"http_port"`
	V1WaitTimeout   time.Duration `json:"v1_wait_timeout"`
	MetricsEnabled  bool          `json:"metrics_enabled"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// Address 监听地址 host:port
func (o *APIOptions) Address() string {
	return net.JoinHostPort(o.HTTPHost, strconv.Itoa(o.HTTPPort))
}

// Config API配置实现
type Config struct {
	options *APIOptions
}

// New 创建API配置实现
func New(userConfig *configtypes.UserAPIConfig) (*Config, error) {
	options := createDefaultAPIOptions()
	if userConfig != nil {
		if err := applyUserAPIConfig(options, userConfig); err != nil {
			return nil, err
		}
	}
	return &Config{options: options}, nil
}

func createDefaultAPIOptions() *APIOptions {
	return &APIOptions{
		HTTPEnabled:     defaultHTTPEnabled,
		HTTPHost:        defaultHTTPHost,
		HTTPPort:        defaultHTTPPort,
		V1WaitTimeout:   mustDuration(defaultV1WaitTimeout),
		MetricsEnabled:  defaultMetricsEnabled,
		ReadTimeout:     mustDuration(defaultReadTimeout),
		ShutdownTimeout: mustDuration(defaultShutdownTimeout),
	}
}

func applyUserAPIConfig(options *APIOptions, userConfig *configtypes.UserAPIConfig) error {
	if userConfig.HTTPEnabled != nil {
		options.HTTPEnabled = *userConfig.HTTPEnabled
	}
	if userConfig.HTTPHost != nil {
		options.HTTPHost = *userConfig.HTTPHost
	}
	if userConfig.HTTPPort != nil {
		if *userConfig.HTTPPort <= 0 || *userConfig.HTTPPort > 65535 {
			return fmt.Errorf("api.http_port 超出范围: %d", *userConfig.HTTPPort)
		}
		options.HTTPPort = *userConfig.HTTPPort
	}
	if userConfig.V1WaitTimeout != nil {
		d, err := time.ParseDuration(*userConfig.V1WaitTimeout)
		if err != nil {
			return fmt.Errorf("api.v1_wait_timeout 无效: %w", err)
		}
		options.V1WaitTimeout = d
	}
	if userConfig.MetricsEnabled != nil {
		options.MetricsEnabled = *userConfig.MetricsEnabled
	}
	return nil
}

// GetOptions 获取完整的API配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
