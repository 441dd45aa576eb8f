// Package storage 定义键值存储接口
package storage

import "context"

// KVStore 键值存储
//
// Get 在键不存在时返回 (nil, nil)；PrefixScan 返回的键值均为副本。
type KVStore interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)
	Close() error
}
