// Package prover 组装证明任务编排核心
//
// 📦 **子模块组织**：
// - fingerprint/  - 请求指纹（去重键）
// - ledger/       - 任务台账，可选 badger 持久化
// - backend/      - 证明类型分发表与 native/sgx/sp1/risc0 后端
// - request/      - 默认请求合并与校验
// - orchestrator/ - 状态机、取消、报告与清理
// - metrics/      - 事件驱动的 prometheus 指标
package prover

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	logimpl "github.com/weisyn/proofhost/internal/core/infrastructure/log"
	badgerstore "github.com/weisyn/proofhost/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/proofhost/internal/core/prover/backend"
	"github.com/weisyn/proofhost/internal/core/prover/ledger"
	"github.com/weisyn/proofhost/internal/core/prover/metrics"
	"github.com/weisyn/proofhost/internal/core/prover/orchestrator"
	"github.com/weisyn/proofhost/internal/core/prover/request"
	"github.com/weisyn/proofhost/pkg/interfaces/config"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
	proverif "github.com/weisyn/proofhost/pkg/interfaces/prover"
	"github.com/weisyn/proofhost/pkg/types"
)

// ==================== 模块输入依赖 ====================

// ModuleInput 证明编排模块的输入依赖
//
// ⚠️ **可选性控制**：
// - EventBus 缺失时不发布事件，也不注册事件驱动的指标
// - Registerer 缺失时使用 prometheus 默认注册表
type ModuleInput struct {
	fx.In

	ConfigProvider config.Provider
	Logger         log.Logger            `optional:"true"`
	EventBus       event.EventBus        `optional:"true"`
	Registerer     prometheus.Registerer `optional:"true"`
	Lifecycle      fx.Lifecycle
}

// ModuleOutput 证明编排模块的输出服务
type ModuleOutput struct {
	fx.Out

	Orchestrator proverif.Orchestrator
	Backends     proverif.BackendTable
	Requests     *request.Builder
	Ledger       *ledger.Ledger
}

// Module 返回证明编排模块
func Module() fx.Option {
	return fx.Module("prover",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建台账、后端、编排器并注册生命周期
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	opts := input.ConfigProvider.GetProver()
	logger := input.Logger
	if logger == nil {
		logger = logimpl.Wrap(zap.NewNop())
	}
	registerer := input.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// 台账（可选持久化）
	ledgerLogger := logimpl.NewModuleLogger(logger, "ledger")
	ledgerOpts := []ledger.Option{ledger.WithLogger(ledgerLogger)}
	var store *badgerstore.Store
	if badgerOpts := input.ConfigProvider.GetBadger(); badgerOpts.Enabled {
		s, err := badgerstore.Open(badgerOpts, logimpl.NewModuleLogger(logger, "storage"))
		if err != nil {
			return ModuleOutput{}, fmt.Errorf("open ledger store: %w", err)
		}
		store = s
		ledgerOpts = append(ledgerOpts, ledger.WithStore(store))
	}
	l := ledger.New(ledgerOpts...)

	// 后端分发表
	backendLogger := logimpl.NewModuleLogger(logger, "backend")
	table := backend.NewTable()
	native := backend.NewNativeBackend(opts.Native, opts.ChainSpecs, backendLogger)
	if err := table.Register(native); err != nil {
		return ModuleOutput{}, err
	}
	for _, kind := range types.AllProofTypes {
		remote, ok := opts.Remote[kind]
		if !ok {
			continue
		}
		if err := table.Register(backend.NewRemoteBackend(kind, remote, backendLogger)); err != nil {
			return ModuleOutput{}, err
		}
		backendLogger.Infof("已注册远程证明后端: kind=%s, endpoint=%s", kind, remote.Endpoint)
	}

	orch := orchestrator.New(l, table, input.EventBus, logimpl.NewModuleLogger(logger, "orchestrator"), orchestrator.Options{
		ProofTimeout:     opts.ProofTimeout,
		RestartSucceeded: opts.RestartSucceeded,
	})

	var collector *metrics.Collector
	if input.EventBus != nil {
		collector = metrics.NewCollector(input.EventBus, logimpl.NewModuleLogger(logger, "metrics"))
	}
	ledgerMetrics := metrics.NewLedgerCollector(orch.StatusCounts)

	input.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if store != nil {
				n, err := l.Restore(ctx)
				if err != nil {
					return fmt.Errorf("restore ledger: %w", err)
				}
				ledgerLogger.Infof("已从存储恢复任务记录: count=%d", n)
			}
			if collector != nil {
				if err := collector.Start(); err != nil {
					return err
				}
			}
			if err := registerer.Register(ledgerMetrics); err != nil {
				ledgerLogger.Warnf("注册台账指标失败: %v", err)
			}
			logger.Infof("证明编排模块已启动: backends=%v", table.Kinds())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			registerer.Unregister(ledgerMetrics)
			if collector != nil {
				collector.Stop()
			}
			err := orch.Close(ctx)
			_ = native.Close()
			if store != nil {
				if cerr := store.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}
			return err
		},
	})

	return ModuleOutput{
		Orchestrator: orch,
		Backends:     table,
		Requests:     request.NewBuilder(opts.DefaultRequest, opts.ChainSpecs),
		Ledger:       l,
	}, nil
}
