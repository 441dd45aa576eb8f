package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/weisyn/proofhost/pkg/types"
)

// keyPrefix 任务记录在键值存储中的前缀
const keyPrefix = "task/"

// InterruptedReason 进程重启时仍未结束的任务被标记失败的原因
const InterruptedReason = "interrupted: process restarted"

const persistTimeout = 5 * time.Second

func recordKey(fp types.Fingerprint) []byte {
	return []byte(keyPrefix + fp.String())
}

// persist 写入记录，调用方持有分片锁
func (l *Ledger) persist(rec types.TaskRecord) {
	if l.store == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		l.warnf("序列化任务记录失败: fp=%s, err=%v", rec.Fingerprint, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := l.store.Set(ctx, recordKey(rec.Fingerprint), data); err != nil {
		l.warnf("持久化任务记录失败: fp=%s, err=%v", rec.Fingerprint, err)
	}
}

// unpersist 删除记录，调用方持有分片锁
func (l *Ledger) unpersist(fp types.Fingerprint) {
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := l.store.Delete(ctx, recordKey(fp)); err != nil {
		l.warnf("删除持久化任务记录失败: fp=%s, err=%v", fp, err)
	}
}

// Restore 从存储加载记录
//
// 计算不会跨进程存活：加载时仍处于非终态的记录改写为 Failed。
// 返回加载的记录数。未配置存储时为空操作。
func (l *Ledger) Restore(ctx context.Context) (int, error) {
	if l.store == nil {
		return 0, nil
	}
	raw, err := l.store.PrefixScan(ctx, []byte(keyPrefix))
	if err != nil {
		return 0, fmt.Errorf("加载任务台账失败: %w", err)
	}

	var restored, interrupted int
	for key, data := range raw {
		var rec types.TaskRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			l.warnf("跳过无法解析的任务记录: key=%s, err=%v", key, err)
			continue
		}
		if !strings.EqualFold(key, string(recordKey(rec.Fingerprint))) {
			l.warnf("跳过键与指纹不一致的任务记录: key=%s, fp=%s", key, rec.Fingerprint)
			continue
		}
		if !rec.Status.IsTerminal() {
			rec.Status = types.TaskStatusFailed
			rec.Error = InterruptedReason
			rec.Proof = nil
			rec.UpdatedAt = l.now()
			interrupted++
		}

		s := l.shardFor(rec.Fingerprint)
		s.mu.Lock()
		s.entries[rec.Fingerprint] = &entry{record: rec}
		if rec.Error == InterruptedReason {
			l.persist(rec)
		}
		s.mu.Unlock()
		restored++
	}

	if l.logger != nil {
		l.logger.Infof("任务台账已恢复: records=%d, interrupted=%d", restored, interrupted)
	}
	return restored, nil
}

func (l *Ledger) warnf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Warnf(format, args...)
	}
}
