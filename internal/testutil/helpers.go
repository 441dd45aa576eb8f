package testutil

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/types"
)

// NewTestLogger 创建测试用的Logger
func NewTestLogger() log.Logger {
	return &MockLogger{}
}

// NewTestBehavioralLogger 创建行为Logger（记录调用）
func NewTestBehavioralLogger() *BehavioralMockLogger {
	return &BehavioralMockLogger{logs: make([]string, 0)}
}

// NewTestRequest 创建测试用的证明请求
func NewTestRequest(block uint64, proofType types.ProofType) *types.ProofRequest {
	l1 := block + 1
	return &types.ProofRequest{
		BlockNumber:            block,
		L1InclusiveBlockNumber: &l1,
		Network:                "taiko_mainnet",
		L1Network:              "ethereum",
		Graffiti:               common.HexToHash("0x8008500000000000000000000000000000000000000000000000000000000000"),
		Prover:                 common.HexToAddress("0x7a27658d4b1b6f4f2a1d1b0c0ddd6e5d3ed6cbb1"),
		ProofType:              proofType,
		BlobProofType:          types.BlobProofKzgVersionedHash,
	}
}

// NewTestProof 创建测试用的证明
func NewTestProof(proofType types.ProofType) *types.Proof {
	return &types.Proof{
		Proof:     []byte{0x01, 0x02},
		Input:     common.HexToHash("0xabc"),
		ProofType: proofType,
	}
}
