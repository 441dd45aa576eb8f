// Package badger 提供基于BadgerDB的存储实现
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	badgerconfig "github.com/weisyn/proofhost/internal/config/storage/badger"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/storage"
)

// ErrStoreClosed 存储已关闭
var ErrStoreClosed = errors.New("badger store closed")

// Store 实现 storage.KVStore
type Store struct {
	db      *badgerdb.DB
	options *badgerconfig.BadgerOptions
	logger  log.Logger

	cancel context.CancelFunc
	bgDone chan struct{}

	// 关闭过程中阻断写入，等待 in-flight 写完成后再关闭 db
	closing int32
	writeWg sync.WaitGroup
}

// Open 打开BadgerDB；options.Path 为空时使用内存模式
func Open(options *badgerconfig.BadgerOptions, logger log.Logger) (*Store, error) {
	var opts badgerdb.Options
	if options.Path == "" {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(options.Path, 0o700); err != nil {
			return nil, fmt.Errorf("无法创建BadgerDB数据目录: %w", err)
		}
		opts = badgerdb.DefaultOptions(options.Path)
		opts.SyncWrites = options.SyncWrites
	}
	if options.MemTableSize > 0 {
		opts.MemTableSize = options.MemTableSize
	}
	// 台账数据量很小，收紧缓存与文件尺寸
	opts.ValueLogFileSize = 64 << 20
	opts.BlockCacheSize = 16 << 20
	opts.IndexCacheSize = 8 << 20
	opts.NumMemtables = 2
	opts.NumCompactors = 2
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开BadgerDB失败: %w", err)
	}
	if logger != nil {
		logger.Infof("BadgerDB已打开: path=%q", options.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:      db,
		options: options,
		logger:  logger,
		cancel:  cancel,
		bgDone:  make(chan struct{}),
	}
	go s.runValueLogGC(ctx, options.GCInterval)
	return s, nil
}

func (s *Store) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, ErrStoreClosed
	}
	s.writeWg.Add(1)
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, ErrStoreClosed
	}
	return s.writeWg.Done, nil
}

// Get 读取键值，键不存在时返回 (nil, nil)
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var valCopy []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger获取键失败: %w", err)
	}
	return valCopy, nil
}

// Set 写入键值
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	}); err != nil {
		return fmt.Errorf("badger写入键失败: %w", err)
	}
	return nil
}

// Delete 删除键，键不存在不视为错误
func (s *Store) Delete(ctx context.Context, key []byte) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	}); err != nil {
		return fmt.Errorf("badger删除键失败: %w", err)
	}
	return nil
}

// PrefixScan 按前缀扫描
func (s *Store) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			valCopy, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = valCopy
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger前缀扫描失败: %w", err)
	}
	return result, nil
}

// Close 停止后台任务，等待写入结束后关闭数据库
func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closing, 0, 1) {
		return nil
	}
	s.cancel()
	<-s.bgDone

	waitCh := make(chan struct{})
	go func() {
		s.writeWg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(30 * time.Second):
		if s.logger != nil {
			s.logger.Warn("等待in-flight写事务超时，继续关闭BadgerDB")
		}
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("关闭BadgerDB失败: %w", err)
	}
	return nil
}

// runValueLogGC 定期执行值日志垃圾回收
func (s *Store) runValueLogGC(ctx context.Context, interval time.Duration) {
	defer close(s.bgDone)
	if interval <= 0 || s.options.Path == "" {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// 一次调用最多回收一个文件，循环到 ErrNoRewrite 为止
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if !errors.Is(err, badgerdb.ErrNoRewrite) && !errors.Is(err, badgerdb.ErrRejected) && s.logger != nil {
					s.logger.Warnf("定期值日志垃圾回收失败: %v", err)
				}
				break
			}
		case <-ctx.Done():
			return
		}
	}
}

// badgerLogger 实现BadgerDB的日志接口
type badgerLogger struct {
	logger log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Errorf("[BadgerDB] "+format, args...)
	}
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Warnf("[BadgerDB] "+format, args...)
	}
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debugf("[BadgerDB] "+format, args...)
	}
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Debugf("[BadgerDB] "+format, args...)
	}
}

var _ storage.KVStore = (*Store)(nil)
