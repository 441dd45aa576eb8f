package badger

import (
	"github.com/weisyn/proofhost/pkg/utils"
)

// BadgerDB存储默认配置值

// getDefaultPath 获取默认数据库路径
func getDefaultPath() string {
	return utils.ResolveDataPath("./data/badger")
}

const (
	// defaultEnabled 默认不持久化台账（计算不跨进程存活）
	defaultEnabled = false

	// defaultSyncWrites 台账记录量小，同步写入
	defaultSyncWrites = true

	// defaultMemTableSize 16MB
	defaultMemTableSize = 16 << 20

	// defaultGCInterval 值日志GC间隔
	defaultGCInterval = "10m"
)
