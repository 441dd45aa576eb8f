package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	proverconfig "github.com/weisyn/proofhost/internal/config/prover"
	"github.com/weisyn/proofhost/internal/core/prover/fingerprint"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// nativeStopTimeout 关闭时等待进行中计算的最长时间
const nativeStopTimeout = 5 * time.Second

// publicInput 原生证明承诺的公共输入
type publicInput struct {
	ChainID                uint64
	Network                string
	BlockNumber            uint64
	L1Network              string
	HasL1InclusiveBlock    bool
	L1InclusiveBlockNumber uint64
	Graffiti               common.Hash
	Prover                 common.Address
	BlobProofType          string
}

// nativeArgs 原生后端的请求级参数（prover_args.native）
type nativeArgs struct {
	SimulatedLatency string `json:"simulated_latency,omitempty"`
}

// NativeBackend 进程内原生证明后端
//
// 不生成密码学证明，只对公共输入做承诺，用于验证流程与调试。
// 计算在有界工作线程池上执行。
type NativeBackend struct {
	pool       *workerPool
	chainSpecs map[string]uint64
	latency    time.Duration
	logger     log.Logger
}

// NewNativeBackend 创建原生后端并启动工作线程池
func NewNativeBackend(opts proverconfig.NativeOptions, chainSpecs map[string]uint64, logger log.Logger) *NativeBackend {
	return &NativeBackend{
		pool:       newWorkerPool(opts.Workers, opts.QueueSize, logger),
		chainSpecs: chainSpecs,
		latency:    opts.SimulatedLatency,
		logger:     logger,
	}
}

// Kind 实现 prover.Backend
func (b *NativeBackend) Kind() types.ProofType { return types.ProofTypeNative }

// Compute 实现 prover.Backend，入队后立即返回句柄
func (b *NativeBackend) Compute(ctx context.Context, req *types.ProofRequest) prover.Handle {
	h, hctx := newHandle(ctx)

	latency, err := b.resolveLatency(req.BackendOptions())
	if err != nil {
		h.finish(nil, err)
		return h
	}

	reqCopy := *req
	j := &job{
		ctx:    hctx,
		handle: h,
		compute: func(ctx context.Context) (*types.Proof, error) {
			return b.prove(ctx, &reqCopy, latency)
		},
	}
	if err := b.pool.submit(j); err != nil {
		h.finish(nil, err)
	}
	return h
}

// prove 计算公共输入承诺
func (b *NativeBackend) prove(ctx context.Context, req *types.ProofRequest, latency time.Duration) (*types.Proof, error) {
	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		case <-timer.C:
		}
	}

	input, err := b.commit(req)
	if err != nil {
		return nil, err
	}
	return &types.Proof{Input: input, ProofType: types.ProofTypeNative}, nil
}

// commit keccak256(rlp(public input))
func (b *NativeBackend) commit(req *types.ProofRequest) (common.Hash, error) {
	chainID, ok := b.chainSpecs[req.Network]
	if !ok {
		return common.Hash{}, fmt.Errorf("no chain spec for network %q", req.Network)
	}

	in := publicInput{
		ChainID:       chainID,
		Network:       req.Network,
		BlockNumber:   req.BlockNumber,
		L1Network:     req.L1Network,
		Graffiti:      req.Graffiti,
		Prover:        req.Prover,
		BlobProofType: string(req.BlobProofType),
	}
	if req.L1InclusiveBlockNumber != nil {
		in.HasL1InclusiveBlock = true
		in.L1InclusiveBlockNumber = *req.L1InclusiveBlockNumber
	}

	enc, err := rlp.EncodeToBytes(&in)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode public input: %w", err)
	}
	return crypto.Keccak256Hash(enc), nil
}

// resolveLatency 请求级参数优先于配置
func (b *NativeBackend) resolveLatency(raw json.RawMessage) (time.Duration, error) {
	if fingerprint.CanonicalOptions(raw) == nil {
		return b.latency, nil
	}
	var args nativeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid native prover args: %w", err)
	}
	if args.SimulatedLatency == "" {
		return b.latency, nil
	}
	d, err := time.ParseDuration(args.SimulatedLatency)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid native simulated_latency %q", args.SimulatedLatency)
	}
	return d, nil
}

// Stats 工作线程池统计
func (b *NativeBackend) Stats() PoolStats {
	return b.pool.stats()
}

// Close 停止工作线程池
func (b *NativeBackend) Close() error {
	b.pool.stop(nativeStopTimeout)
	return nil
}

var _ prover.Backend = (*NativeBackend)(nil)
