package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/weisyn/proofhost/internal/config/api"
	"github.com/weisyn/proofhost/internal/config/log"
	"github.com/weisyn/proofhost/internal/config/prover"
	"github.com/weisyn/proofhost/internal/config/storage/badger"
	"github.com/weisyn/proofhost/pkg/interfaces/config"
	"github.com/weisyn/proofhost/pkg/types"
)

const (
	defaultAppName     = "proofhost"
	defaultEnvironment = "prod"
)

// Provider 实现配置提供者接口
//
// 各区域配置在构造时一次性解析并校验，getter 只返回缓存结果。
type Provider struct {
	appConfig *types.AppConfig

	log    *log.LogOptions
	api    *api.APIOptions
	prover *prover.ProverOptions
	badger *badger.BadgerOptions
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) (*Provider, error) {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}

	apiCfg, err := api.New(appConfig.API)
	if err != nil {
		return nil, err
	}
	proverCfg, err := prover.New(appConfig.Prover)
	if err != nil {
		return nil, err
	}

	return &Provider{
		appConfig: appConfig,
		log:       log.New(appConfig.Log).GetOptions(),
		api:       apiCfg.GetOptions(),
		prover:    proverCfg.GetOptions(),
		badger:    badger.New(appConfig.Storage).GetOptions(),
	}, nil
}

// LoadFile 从JSON配置文件读取应用配置
//
// 文件不存在时返回空配置（全部使用默认值）。
func LoadFile(path string) (*types.AppConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &types.AppConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析JSON配置内容
func Parse(data []byte) (*types.AppConfig, error) {
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &appConfig, nil
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions { return p.log }

// GetAPI 获取API服务配置
func (p *Provider) GetAPI() *api.APIOptions { return p.api }

// GetProver 获取证明编排配置
func (p *Provider) GetProver() *prover.ProverOptions { return p.prover }

// GetBadger 获取台账持久化存储配置
func (p *Provider) GetBadger() *badger.BadgerOptions { return p.badger }

// GetAppName 获取应用名称
func (p *Provider) GetAppName() string {
	if p.appConfig.AppName != nil && *p.appConfig.AppName != "" {
		return *p.appConfig.AppName
	}
	return defaultAppName
}

// GetEnvironment 获取运行环境
func (p *Provider) GetEnvironment() string {
	if p.appConfig.Environment != nil {
		switch env := strings.ToLower(*p.appConfig.Environment); env {
		case "dev", "test", "prod":
			return env
		}
	}
	return defaultEnvironment
}

var _ config.Provider = (*Provider)(nil)
