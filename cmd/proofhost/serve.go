package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/proofhost/internal/app"
)

var serveConfigPath string

// serveCmd 启动服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动证明编排服务",
	Long:  "加载配置文件并启动HTTP API，收到 SIGINT/SIGTERM 后优雅退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := app.ResolveConfigPath(serveConfigPath)

		a, err := app.Start(app.WithConfigFile(path))
		if err != nil {
			return err
		}
		pterm.Success.Printfln("proofhost 已启动，配置: %s", path)

		if err := a.Wait(); err != nil {
			return err
		}
		pterm.Info.Println("proofhost 已停止")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "",
		"配置文件路径（默认读取环境变量 "+app.ConfigPathEnv+"，否则 "+app.DefaultConfigPath+"）")
	rootCmd.AddCommand(serveCmd)
}
