// Package config provides configuration provider interfaces.
package config

import (
	apiconfig "github.com/weisyn/proofhost/internal/config/api"
	logconfig "github.com/weisyn/proofhost/internal/config/log"
	proverconfig "github.com/weisyn/proofhost/internal/config/prover"
	badgerconfig "github.com/weisyn/proofhost/internal/config/storage/badger"
)

// Provider 配置提供者接口
//
// 返回的是应用了默认值之后的完整配置，调用方不需要再处理缺省字段。
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetAPI 获取API服务配置
	GetAPI() *apiconfig.APIOptions

	// GetProver 获取证明编排配置
	GetProver() *proverconfig.ProverOptions

	// GetBadger 获取台账持久化存储配置
	GetBadger() *badgerconfig.BadgerOptions

	// GetAppName 获取应用名称
	GetAppName() string

	// GetEnvironment 获取运行环境：dev | test | prod（未配置时为 prod）
	GetEnvironment() string
}
