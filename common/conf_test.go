package common_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cm "tgbulk/common"
)

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConf(t, `
[download]
apiID = 12345
apiHash = abcdef
phone = +8613800000000
sessionDir = ./sess
downloadDir = ./data
maxRetry = 3
perSize = 20

[net]
useProxy = true
proxyHost = 127.0.0.1
proxyPort = 7890

[database]
dbPath = ./x.db

[common]
logSplitSize = 5
`)

	config := new(cm.Config)
	require.NoError(t, cm.LoadConfig(config, path))

	assert.Equal(t, 12345, config.Download.APIID)
	assert.Equal(t, "abcdef", config.Download.APIHash)
	assert.Equal(t, "+8613800000000", config.Download.Phone)
	assert.Equal(t, "./sess", config.Download.SessionDir)
	assert.Equal(t, "./data", config.Download.DownloadDir)
	assert.Equal(t, 3, config.Download.MaxRetry)
	assert.Equal(t, 20, config.Download.PerSize)
	assert.True(t, config.NET.UseProxy)
	assert.Equal(t, "127.0.0.1", config.NET.ProxyHost)
	assert.Equal(t, 7890, config.NET.ProxyPort)
	assert.Equal(t, "./x.db", config.DB.DBPath)
	assert.Equal(t, 5, config.Common.LogSplitSize)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConf(t, "[download]\n")

	config := new(cm.Config)
	require.NoError(t, cm.LoadConfig(config, path))

	assert.NotZero(t, config.Download.APIID)
	assert.NotEmpty(t, config.Download.APIHash)
	assert.Equal(t, "./session", config.Download.SessionDir)
	assert.Equal(t, "./downloads", config.Download.DownloadDir)
	assert.Equal(t, 5, config.Download.MaxRetry)
	assert.Equal(t, 50, config.Download.PerSize)
	assert.Equal(t, "./files.db", config.DB.DBPath)
	assert.Equal(t, 2, config.Common.LogSplitSize)
}

func TestLoadConfigPerSizeClamped(t *testing.T) {
	path := writeConf(t, "[download]\nperSize = 500\n")

	config := new(cm.Config)
	require.NoError(t, cm.LoadConfig(config, path))
	assert.Equal(t, 50, config.Download.PerSize)
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := new(cm.Config)
	assert.Error(t, cm.LoadConfig(config, filepath.Join(t.TempDir(), "nope.ini")))
}
