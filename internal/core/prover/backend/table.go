package backend

import (
	"fmt"
	"sort"

	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// Table 证明类型到后端的分发表
//
// 启动阶段通过 Register 填充，之后只读，因此查询不加锁。
type Table struct {
	backends map[types.ProofType]prover.Backend
}

// NewTable 创建空分发表
func NewTable() *Table {
	return &Table{backends: make(map[types.ProofType]prover.Backend)}
}

// Register 注册后端
func (t *Table) Register(b prover.Backend) error {
	kind := b.Kind()
	if _, exists := t.backends[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBackend, kind)
	}
	t.backends[kind] = b
	return nil
}

// Lookup 查找后端
func (t *Table) Lookup(kind types.ProofType) (prover.Backend, error) {
	b, ok := t.backends[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, kind)
	}
	return b, nil
}

// Kinds 已注册的证明类型（有序）
func (t *Table) Kinds() []types.ProofType {
	kinds := make([]types.ProofType, 0, len(t.backends))
	for kind := range t.backends {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

var _ prover.BackendTable = (*Table)(nil)
