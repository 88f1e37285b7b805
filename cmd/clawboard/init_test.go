package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawboard/internal/config"
)

func TestWriteConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFile)
	c := config.DefaultConfig()
	c.Source.DBURL = "data/db.csv"
	c.Server.Port = 9100

	var buf bytes.Buffer
	require.NoError(t, writeConfigFile(&buf, path, c, false))
	assert.Contains(t, buf.String(), path)

	loaded, info, err := config.LoadConfigWithInfo(path)
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.Equal(t, "data/db.csv", loaded.Source.DBURL)
	assert.Equal(t, 9100, loaded.Server.Port)

	// 已存在时不覆盖
	c.Server.Port = 9200
	assert.Error(t, writeConfigFile(&buf, path, c, false))
	loaded, err = config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, loaded.Server.Port)

	require.NoError(t, writeConfigFile(&buf, path, c, true))
	loaded, err = config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9200, loaded.Server.Port)
}

func TestWriteConfigFile_Defaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, writeConfigFile(&bytes.Buffer{}, path, nil, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[source]")
	assert.Contains(t, string(data), "db_url")
}
