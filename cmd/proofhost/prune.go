package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pruneCmd 清理终态任务
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "删除所有已结束（成功/失败/已取消）的任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(globalFlags.Endpoint, globalFlags.Timeout)
		removed, err := client.Prune(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "已清理 %d 个任务\n", removed)
		return err
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
