package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	Endpoint string        // 服务地址
	Timeout  time.Duration // 请求超时
}

var globalFlags GlobalFlags

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "proofhost",
	Short: "证明任务编排服务",
	Long: `proofhost - 证明任务编排服务

接收证明请求，按请求指纹去重，分发给 native/sgx/sp1/risc0 后端计算，
支持取消后重启、任务报告与清理。

  proofhost serve --config configs/proofhost.json   # 启动服务
  proofhost report                                  # 查看任务
  proofhost prune                                   # 清理终态任务`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.Endpoint, "endpoint", "http://127.0.0.1:8080", "proofhost 服务地址")
	rootCmd.PersistentFlags().DurationVar(&globalFlags.Timeout, "timeout", 30*time.Second, "请求超时")
}
