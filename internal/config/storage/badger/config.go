package badger

import (
	"path/filepath"
	"time"

	configtypes "github.com/weisyn/proofhost/pkg/types"
	"github.com/weisyn/proofhost/pkg/utils"
)

// BadgerOptions BadgerDB存储配置选项
type BadgerOptions struct {
	Enabled      bool          `json:"enabled"`        // 是否启用台账持久化
	Path         string        `json:"path"`           // 数据库存储路径
	SyncWrites   bool          `json:"sync_writes"`    // 是否同步写入
	MemTableSize int64         `json:"mem_table_size"` // 内存表大小
	GCInterval   time.Duration `json:"gc_interval"`    // 值日志GC间隔，0表示关闭
}

// Config BadgerDB配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建BadgerDB配置实现
func New(userConfig *configtypes.UserStorageConfig) *Config {
	options := createDefaultBadgerOptions()
	if userConfig != nil {
		applyUserConfig(options, userConfig)
	}
	return &Config{options: options}
}

// NewFromOptions 从BadgerOptions创建配置实现
func NewFromOptions(options *BadgerOptions) *Config {
	return &Config{options: options}
}

func createDefaultBadgerOptions() *BadgerOptions {
	gc, _ := time.ParseDuration(defaultGCInterval)
	return &BadgerOptions{
		Enabled:      defaultEnabled,
		Path:         getDefaultPath(),
		SyncWrites:   defaultSyncWrites,
		MemTableSize: defaultMemTableSize,
		GCInterval:   gc,
	}
}

// applyUserConfig 应用用户配置覆盖默认值
//
// 路径规则：配置了 storage.data_root 时使用 {data_root}/badger/，否则 ./data/badger/
func applyUserConfig(options *BadgerOptions, userConfig *configtypes.UserStorageConfig) {
	if userConfig.PersistLedger != nil {
		options.Enabled = *userConfig.PersistLedger
	}
	if userConfig.DataRoot != nil && *userConfig.DataRoot != "" {
		options.Path = utils.ResolveDataPath(filepath.Join(*userConfig.DataRoot, "badger"))
	}
}

// GetOptions 获取完整的BadgerDB配置选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}
