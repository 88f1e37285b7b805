package util

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatYen(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "¥12,345", FormatYen(12345))
	assert.Equal(t, "¥1,000", FormatYen(999.6))
	assert.Equal(t, "¥0", FormatYen(0))
	assert.Equal(t, Placeholder, FormatYenPtr(nil))
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	v := 0.33
	assert.Equal(t, "33.0%", FormatPercent(&v))
	assert.Equal(t, "100.0%", FormatRatio(1))
	assert.Equal(t, Placeholder, FormatPercent(nil))
}

func TestFormatCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1,234", FormatCount(1234))
}

func TestFindAvailablePort(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	busy := ln.Addr().(*net.TCPAddr).Port

	got := FindAvailablePort(busy)
	assert.NotEqual(t, busy, got)
}

func TestLaunchCommands(t *testing.T) {
	t.Parallel()

	const url = "http://localhost:20262"
	tests := []struct {
		goos  string
		first []string
		count int
	}{
		{"windows", []string{"rundll32", "url.dll,FileProtocolHandler", url}, 2},
		{"darwin", []string{"open", url}, 1},
		{"linux", []string{"xdg-open", url}, 4},
		{"freebsd", []string{"xdg-open", url}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmds := launchCommands(tt.goos, url)
			require.Len(t, cmds, tt.count)
			assert.Equal(t, tt.first, cmds[0])
			for _, argv := range cmds {
				assert.Equal(t, url, argv[len(argv)-1])
			}
		})
	}

	// 候选表本身不被修改
	assert.Equal(t, []string{"open"}, browserLaunchers["darwin"][0])
}
