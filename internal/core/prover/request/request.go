// Package request 将API层的可选字段请求合并默认值并校验为 ProofRequest
package request

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/proofhost/pkg/types"
)

// ErrInvalidRequest 请求字段缺失或格式错误
var ErrInvalidRequest = errors.New("invalid proof request")

// WrapInvalidRequestError 包装请求校验错误
func WrapInvalidRequestError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidRequest, field, reason)
}

// Builder 请求构造器
//
// 默认请求与链规格在启动时确定，构造器本身无状态，可并发使用。
type Builder struct {
	defaults   types.ProofRequestOpt
	chainSpecs map[string]uint64
}

// NewBuilder 创建请求构造器
func NewBuilder(defaults types.ProofRequestOpt, chainSpecs map[string]uint64) *Builder {
	return &Builder{defaults: defaults, chainSpecs: chainSpecs}
}

// Build 合并默认请求并校验
func (b *Builder) Build(opt types.ProofRequestOpt) (*types.ProofRequest, error) {
	merged := b.defaults.Merge(opt)

	if merged.BlockNumber == nil {
		return nil, WrapInvalidRequestError("block_number", "is required")
	}

	network, err := b.network("network", merged.Network)
	if err != nil {
		return nil, err
	}
	l1Network, err := b.network("l1_network", merged.L1Network)
	if err != nil {
		return nil, err
	}

	graffiti, err := parseGraffiti(merged.Graffiti)
	if err != nil {
		return nil, err
	}

	if merged.Prover == nil {
		return nil, WrapInvalidRequestError("prover", "is required")
	}
	if !common.IsHexAddress(*merged.Prover) {
		return nil, WrapInvalidRequestError("prover", fmt.Sprintf("%q is not a hex address", *merged.Prover))
	}

	if merged.ProofType == nil {
		return nil, WrapInvalidRequestError("proof_type", "is required")
	}
	proofType, err := types.ParseProofType(*merged.ProofType)
	if err != nil {
		return nil, WrapInvalidRequestError("proof_type", err.Error())
	}

	var blobRaw string
	if merged.BlobProofType != nil {
		blobRaw = *merged.BlobProofType
	}
	blobProofType, err := types.ParseBlobProofType(blobRaw)
	if err != nil {
		return nil, WrapInvalidRequestError("blob_proof_type", err.Error())
	}

	for _, pt := range types.AllProofTypes {
		if raw := merged.ProverArgs.For(pt); len(raw) > 0 && !json.Valid(raw) {
			return nil, WrapInvalidRequestError("prover_args."+string(pt), "is not valid JSON")
		}
	}

	req := &types.ProofRequest{
		BlockNumber:   *merged.BlockNumber,
		Network:       network,
		L1Network:     l1Network,
		Graffiti:      graffiti,
		Prover:        common.HexToAddress(*merged.Prover),
		ProofType:     proofType,
		BlobProofType: blobProofType,
		ProverArgs:    merged.ProverArgs,
	}
	if merged.L1InclusiveBlockNumber != nil {
		l1 := *merged.L1InclusiveBlockNumber
		req.L1InclusiveBlockNumber = &l1
	}
	return req, nil
}

// ChainID 返回网络的 chain id
func (b *Builder) ChainID(network string) (uint64, bool) {
	id, ok := b.chainSpecs[strings.ToLower(strings.TrimSpace(network))]
	return id, ok
}

func (b *Builder) network(field string, value *string) (string, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "", WrapInvalidRequestError(field, "is required")
	}
	name := strings.ToLower(strings.TrimSpace(*value))
	if _, ok := b.chainSpecs[name]; !ok {
		return "", WrapInvalidRequestError(field, fmt.Sprintf("unknown network %q", *value))
	}
	return name, nil
}

// parseGraffiti 32字节十六进制，0x 前缀可选；未设置时为全零
func parseGraffiti(value *string) (common.Hash, error) {
	if value == nil {
		return common.Hash{}, nil
	}
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(*value), "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, WrapInvalidRequestError("graffiti", "must be 32 bytes of hex")
	}
	return common.BytesToHash(raw), nil
}
