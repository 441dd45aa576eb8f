// Package app assembles the proofhost application from its fx modules.
package app

import (
	"context"
	"os"
	"time"

	"github.com/weisyn/proofhost/internal/config"
)

const (
	// ConfigPathEnv 配置文件路径环境变量
	ConfigPathEnv = "PROOFHOST_CONFIG"

	// DefaultConfigPath 默认配置文件路径
	DefaultConfigPath = "./configs/proofhost.json"

	startTimeout = 30 * time.Second

	// 给编排器留出取消计算、等待 watcher 与存储落盘的时间
	stopTimeout = 60 * time.Second
)

// App 是 proofhost 应用的对外接口
type App interface {
	// Stop 停止应用
	Stop() error

	// Wait 阻塞直到收到 SIGINT/SIGTERM，然后停止应用
	Wait() error
}

// internalApp 应用的内部实现
type internalApp struct {
	bootstrap *Bootstrap
}

// Stop 停止应用
func (a *internalApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.bootstrap.StopApp(ctx)
}

// Wait 等待退出信号
func (a *internalApp) Wait() error {
	<-a.bootstrap.Done()
	return a.Stop()
}

// Start 加载配置并启动应用
func Start(appOptions ...Option) (App, error) {
	opts := newOptions(appOptions...)

	if opts.appConfig == nil {
		appConfig, err := config.LoadFile(ResolveConfigPath(opts.configFilePath))
		if err != nil {
			return nil, err
		}
		opts.appConfig = appConfig
	}

	bootstrap := NewBootstrap(opts)
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := bootstrap.StartApp(ctx); err != nil {
		return nil, err
	}
	return &internalApp{bootstrap: bootstrap}, nil
}

// ResolveConfigPath 确定配置文件路径
//
// 优先级：显式参数 > 环境变量 PROOFHOST_CONFIG > 默认路径
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		return envPath
	}
	return DefaultConfigPath
}
