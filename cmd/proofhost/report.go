package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/proofhost/pkg/types"
)

// reportCmd 查看任务报告
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "查看所有证明任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(globalFlags.Endpoint, globalFlags.Timeout)
		reports, err := client.Report(cmd.Context())
		if err != nil {
			return err
		}
		return renderReport(cmd.OutOrStdout(), reports)
	},
}

// renderReport 以表格输出任务报告
func renderReport(w io.Writer, reports []types.TaskReport) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "没有任务")
		return err
	}

	data := pterm.TableData{
		{"FINGERPRINT", "PROOF TYPE", "NETWORK", "BLOCK", "STATUS", "UPDATED"},
	}
	for _, r := range reports {
		data = append(data, []string{
			r.Fingerprint.String(),
			string(r.ProofType),
			r.Network,
			strconv.FormatUint(r.BlockNumber, 10),
			string(r.Status),
			r.UpdatedAt.Local().Format(time.DateTime),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
