package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"clawboard/internal/config"
	"clawboard/internal/normalize"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "生成配置文件",
	Long: `把当前生效的配置（默认值 + 已有配置文件 + 环境变量）写成 TOML，
之后可直接编辑 source.db_url / source.master_url 等字段。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := normalize.FirstNonEmpty(configPath, config.DefaultConfigFile)
		return writeConfigFile(cmd.OutOrStdout(), path, cfg, initForce)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "覆盖已存在的配置文件")
}

// writeConfigFile 写出配置；文件已存在且未指定 force 时拒绝覆盖
func writeConfigFile(out io.Writer, path string, c *config.AppConfig, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("配置文件已存在: %s（使用 --force 覆盖）", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if c == nil {
		c = config.DefaultConfig()
	}
	if err := config.SaveConfig(path, c); err != nil {
		return fmt.Errorf("写入配置失败: %w", err)
	}
	fmt.Fprintf(out, "已写入配置: %s\n", path)
	return nil
}
