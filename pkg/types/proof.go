package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ============================================================================
//                              证明请求定义
// ============================================================================

// ProofType 证明后端类型
type ProofType string

const (
	// ProofTypeNative 进程内原生证明（不做远程证明）
	ProofTypeNative ProofType = "native"

	// ProofTypeSgx SGX 飞地证明
	ProofTypeSgx ProofType = "sgx"

	// ProofTypeSp1 SP1 zkVM 证明
	ProofTypeSp1 ProofType = "sp1"

	// ProofTypeRisc0 RISC Zero zkVM 证明
	ProofTypeRisc0 ProofType = "risc0"
)

// AllProofTypes 所有已知的证明类型
var AllProofTypes = []ProofType{ProofTypeNative, ProofTypeSgx, ProofTypeSp1, ProofTypeRisc0}

// ParseProofType 解析证明类型（大小写不敏感）
func ParseProofType(s string) (ProofType, error) {
	pt := ProofType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllProofTypes {
		if pt == known {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown proof type %q", s)
}

// BlobProofType blob 证明方式
type BlobProofType string

const (
	// BlobProofKzgVersionedHash 使用 KZG 版本化哈希
	BlobProofKzgVersionedHash BlobProofType = "kzg_versioned_hash"

	// BlobProofEquivalence 使用等价性证明
	BlobProofEquivalence BlobProofType = "proof_of_equivalence"
)

// ParseBlobProofType 解析 blob 证明方式，空字符串返回默认值
func ParseBlobProofType(s string) (BlobProofType, error) {
	switch BlobProofType(strings.ToLower(strings.TrimSpace(s))) {
	case "", BlobProofKzgVersionedHash:
		return BlobProofKzgVersionedHash, nil
	case BlobProofEquivalence:
		return BlobProofEquivalence, nil
	default:
		return "", fmt.Errorf("unknown blob proof type %q", s)
	}
}

// ProverSpecificOpts 各证明后端的专属参数
//
// 每个字段都是原样透传给对应后端的JSON；只有与 ProofType 匹配的那一项参与指纹计算。
type ProverSpecificOpts struct {
	Native json.RawMessage `json:"native,omitempty"`
	Sgx    json.RawMessage `json:"sgx,omitempty"`
	Sp1    json.RawMessage `json:"sp1,omitempty"`
	Risc0  json.RawMessage `json:"risc0,omitempty"`
}

// For 返回指定证明类型的参数（未设置时为nil）
func (o ProverSpecificOpts) For(pt ProofType) json.RawMessage {
	switch pt {
	case ProofTypeNative:
		return o.Native
	case ProofTypeSgx:
		return o.Sgx
	case ProofTypeSp1:
		return o.Sp1
	case ProofTypeRisc0:
		return o.Risc0
	}
	return nil
}

// merge 用 other 中已设置的字段覆盖当前值
func (o ProverSpecificOpts) merge(other ProverSpecificOpts) ProverSpecificOpts {
	if len(other.Native) > 0 {
		o.Native = other.Native
	}
	if len(other.Sgx) > 0 {
		o.Sgx = other.Sgx
	}
	if len(other.Sp1) > 0 {
		o.Sp1 = other.Sp1
	}
	if len(other.Risc0) > 0 {
		o.Risc0 = other.Risc0
	}
	return o
}

// ProofRequestOpt API层接收的证明请求（所有字段可选）
//
// 🎯 **合并规则**：
// 请求中出现的字段覆盖配置文件中的默认请求，合并结果再经过校验得到 ProofRequest。
type ProofRequestOpt struct {
	BlockNumber            *uint64            `json:"block_number,omitempty"`
	L1InclusiveBlockNumber *uint64            `json:"l1_inclusive_block_number,omitempty"`
	Network                *string            `json:"network,omitempty"`
	L1Network              *string            `json:"l1_network,omitempty"`
	Graffiti               *string            `json:"graffiti,omitempty"`
	Prover                 *string            `json:"prover,omitempty"`
	ProofType              *string            `json:"proof_type,omitempty"`
	BlobProofType          *string            `json:"blob_proof_type,omitempty"`
	ProverArgs             ProverSpecificOpts `json:"prover_args"`
}

// Merge 返回以 o 为底、override 中已设置字段覆盖后的新请求
func (o ProofRequestOpt) Merge(override ProofRequestOpt) ProofRequestOpt {
	out := o
	if override.BlockNumber != nil {
		out.BlockNumber = override.BlockNumber
	}
	if override.L1InclusiveBlockNumber != nil {
		out.L1InclusiveBlockNumber = override.L1InclusiveBlockNumber
	}
	if override.Network != nil {
		out.Network = override.Network
	}
	if override.L1Network != nil {
		out.L1Network = override.L1Network
	}
	if override.Graffiti != nil {
		out.Graffiti = override.Graffiti
	}
	if override.Prover != nil {
		out.Prover = override.Prover
	}
	if override.ProofType != nil {
		out.ProofType = override.ProofType
	}
	if override.BlobProofType != nil {
		out.BlobProofType = override.BlobProofType
	}
	out.ProverArgs = o.ProverArgs.merge(override.ProverArgs)
	return out
}

// ProofRequest 经过校验的证明请求，提交后不可变
type ProofRequest struct {
	BlockNumber            uint64             `json:"block_number"`
	L1InclusiveBlockNumber *uint64            `json:"l1_inclusive_block_number,omitempty"`
	Network                string             `json:"network"`
	L1Network              string             `json:"l1_network"`
	Graffiti               common.Hash        `json:"graffiti"`
	Prover                 common.Address     `json:"prover"`
	ProofType              ProofType          `json:"proof_type"`
	BlobProofType          BlobProofType      `json:"blob_proof_type"`
	ProverArgs             ProverSpecificOpts `json:"prover_args"`
}

// BackendOptions 返回当前证明类型对应的后端参数
func (r *ProofRequest) BackendOptions() json.RawMessage {
	return r.ProverArgs.For(r.ProofType)
}

// ============================================================================
//                              证明结果定义
// ============================================================================

// Proof 后端产出的证明
type Proof struct {
	// 证明字节（原生证明为空）
	Proof hexutil.Bytes `json:"proof,omitempty"`

	// 公共输入承诺
	Input common.Hash `json:"input"`

	// 飞地远程证明报告（仅 SGX）
	Quote hexutil.Bytes `json:"quote,omitempty"`

	// 生成证明的后端
	ProofType ProofType `json:"proof_type"`
}

// Fingerprint 请求的规范化去重键
type Fingerprint common.Hash

// String 返回 0x 前缀的十六进制表示
func (f Fingerprint) String() string {
	return common.Hash(f).Hex()
}

// MarshalText 实现 encoding.TextMarshaler
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (f *Fingerprint) UnmarshalText(text []byte) error {
	var h common.Hash
	if err := h.UnmarshalText(text); err != nil {
		return err
	}
	*f = Fingerprint(h)
	return nil
}

// ============================================================================
//                              任务状态定义
// ============================================================================

// TaskStatus 任务状态
type TaskStatus string

const (
	// TaskStatusRegistered 已登记，尚未交给后端
	TaskStatusRegistered TaskStatus = "registered"

	// TaskStatusWorkInProgress 后端计算中
	TaskStatusWorkInProgress TaskStatus = "work_in_progress"

	// TaskStatusSuccess 已生成证明
	TaskStatusSuccess TaskStatus = "success"

	// TaskStatusFailed 证明生成失败
	TaskStatusFailed TaskStatus = "failed"

	// TaskStatusCancellationInProgress 已请求取消，等待后端确认
	TaskStatusCancellationInProgress TaskStatus = "cancellation_in_progress"

	// TaskStatusCancelled 已取消
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal 是否为终态
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccess || s == TaskStatusFailed || s == TaskStatusCancelled
}

// IsValid 是否为已知状态
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusRegistered, TaskStatusWorkInProgress, TaskStatusSuccess,
		TaskStatusFailed, TaskStatusCancellationInProgress, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskRecord 任务台账中的一条记录
//
// 🎯 **所有权**：
// 记录只归台账所有，外部拿到的永远是副本；取消句柄由台账另行保存，不出现在副本中。
type TaskRecord struct {
	Fingerprint Fingerprint `json:"fingerprint"`

	// 每次登记生成的新尝试ID，用于丢弃过期尝试的迟到结果
	Attempt string `json:"attempt"`

	ProofType   ProofType  `json:"proof_type"`
	BlockNumber uint64     `json:"block_number"`
	Network     string     `json:"network"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 成功时的证明
	Proof *Proof `json:"proof,omitempty"`

	// 失败原因
	Error string `json:"error,omitempty"`
}

// TaskReport 报告中的任务摘要
type TaskReport struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	ProofType   ProofType   `json:"proof_type"`
	BlockNumber uint64      `json:"block_number"`
	Network     string      `json:"network"`
	Status      TaskStatus  `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Report 生成记录摘要
func (r TaskRecord) Report() TaskReport {
	return TaskReport{
		Fingerprint: r.Fingerprint,
		ProofType:   r.ProofType,
		BlockNumber: r.BlockNumber,
		Network:     r.Network,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// TaskStatusChangedEvent 任务状态变更事件
type TaskStatusChangedEvent struct {
	Fingerprint Fingerprint
	Attempt     string
	ProofType   ProofType
	From        TaskStatus
	To          TaskStatus
	// 从登记到本次变更经过的时间
	Elapsed time.Duration
	At      time.Time
}
