package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"clawboard/internal/server"
	"clawboard/internal/store"
	"clawboard/internal/util"
)

var serveOpts struct {
	port      int
	dev       bool
	staticDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "本地预览看板",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.IntVarP(&serveOpts.port, "port", "p", 0, "服务端口 (仅当配置文件未显式配置 port 时生效)")
	f.BoolVar(&serveOpts.dev, "dev", false, "开发模式（不打开浏览器、禁用缓存）")
	f.StringVar(&serveOpts.staticDir, "dir", "", "静态目录 (覆盖配置 server.static_dir)")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "==========================================")
	fmt.Fprintln(out, "  clawboard - ブース売上ダッシュボード")
	fmt.Fprintln(out, "==========================================")

	// 命令行参数覆盖配置
	if serveOpts.port > 0 && !cfgInfo.PortSpecified {
		cfg.Server.Port = serveOpts.port
	}
	if serveOpts.dev {
		cfg.Server.DevMode = true
	}
	if serveOpts.staticDir != "" {
		cfg.Server.StaticDir = serveOpts.staticDir
	}
	if _, err := os.Stat(filepath.Join(cfg.Server.StaticDir, "index.html")); err != nil {
		logger.Warn("index.html not found", "dir", cfg.Server.StaticDir)
	}

	var st *store.Store
	if s, err := store.New(cfg.Output.Dir); err == nil {
		st = s
	} else {
		logger.Warn("snapshot dir unavailable", "dir", cfg.Output.Dir, "error", err)
	}

	port := util.FindAvailablePort(cfg.Server.Port)
	if port != cfg.Server.Port {
		fmt.Fprintf(out, "端口 %d 已被占用，改用 %d\n", cfg.Server.Port, port)
	}
	srv := server.NewServer(cfg, st, logger)

	addr := fmt.Sprintf(":%d", port)
	url := fmt.Sprintf("http://localhost:%d", port)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "服务启动中，监听端口 %d，静态目录 %s ...\n", port, cfg.Server.StaticDir)
		errCh <- srv.Run(addr)
	}()

	if !cfg.Server.DevMode {
		fmt.Fprintf(out, "正在打开浏览器: %s\n", url)
		if err := util.OpenBrowser(url); err != nil {
			logger.Debug("open browser failed", "error", err)
			fmt.Fprintf(out, "无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Fprintf(out, "开发模式: 请访问 %s\n", url)
	}

	fmt.Fprintln(out, "\n按 Ctrl+C 停止服务...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		fmt.Fprintln(out, "\n正在关闭服务...")
		return nil
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	}
}
