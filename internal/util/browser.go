package util

import (
	"errors"
	"fmt"
	"net"
	"os/exec"
	"runtime"
)

// ErrNoBrowser 没有可用的浏览器启动命令
var ErrNoBrowser = errors.New("no browser launcher available")

// browserLaunchers 各平台依次尝试的启动命令，URL 追加在参数末尾
var browserLaunchers = map[string][][]string{
	// rundll32 在 Windows 7 上比 cmd /c start 稳定
	"windows": {{"rundll32", "url.dll,FileProtocolHandler"}, {"explorer"}},
	"darwin":  {{"open"}},
	"linux":   {{"xdg-open"}, {"sensible-browser"}, {"google-chrome"}, {"firefox"}},
}

// launchCommands 返回 goos 下打开 url 的候选命令；未知平台按 linux 处理
func launchCommands(goos, url string) [][]string {
	launchers, ok := browserLaunchers[goos]
	if !ok {
		launchers = browserLaunchers["linux"]
	}
	cmds := make([][]string, 0, len(launchers))
	for _, l := range launchers {
		argv := append(append([]string{}, l...), url)
		cmds = append(cmds, argv)
	}
	return cmds
}

// OpenBrowser 用默认浏览器打开看板地址，依次尝试候选命令直到有一个能启动
func OpenBrowser(url string) error {
	err := ErrNoBrowser
	for _, argv := range launchCommands(runtime.GOOS, url) {
		if _, lookErr := exec.LookPath(argv[0]); lookErr != nil {
			err = lookErr
			continue
		}
		if err = exec.Command(argv[0], argv[1:]...).Start(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("open %s: %w", url, err)
}

// FindAvailablePort 从 startPort 起查找可监听的端口（最多尝试 50 个）
func FindAvailablePort(startPort int) int {
	for port := startPort; port < startPort+50; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port
	}
	return startPort
}
