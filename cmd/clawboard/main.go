package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clawboard/internal/config"
	"clawboard/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg     *config.AppConfig
	cfgInfo config.LoadConfigInfo
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clawboard",
	Short: "クレーンゲーム ブース売上ダッシュボード",
	Long: `clawboard 从表格来源构建看板数据：

  init   生成配置文件
  build  读取明细与记号主表，解码记号并写出 JSON 快照（可选 KPI 工作簿）
  kpi    基于快照做过滤与聚合，输出表格或 JSON
  serve  本地预览看板静态页面`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, info, err := config.LoadConfigWithInfo(configPath)
		if err != nil {
			return fmt.Errorf("加载配置失败 (%s): %w", info.Path, err)
		}
		cfg, cfgInfo = loaded, info

		l, err := logging.New(cfg.Log.Mode, verbose)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		logger = l
		logger.Debug("config loaded", "path", info.Path, "found", info.Found)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (默认 ./"+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(initCmd, buildCmd, kpiCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
