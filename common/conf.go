package common

import (
	"github.com/gotd/td/telegram"
	"gopkg.in/ini.v1"
)

type Config struct {
	Download struct {
		APIID       int    `ini:"apiID"`
		APIHash     string `ini:"apiHash"`
		Phone       string `ini:"phone"`
		SessionDir  string `ini:"sessionDir"`
		DownloadDir string `ini:"downloadDir"`
		MaxRetry    int    `ini:"maxRetry"`
		PerSize     int    `ini:"perSize"` // 每次请求多少条消息1-100，文件大建议设小
	} `ini:"download"`

	NET struct {
		UseProxy  bool   `ini:"useProxy"`
		ProxyHost string `ini:"proxyHost"`
		ProxyPort int    `ini:"proxyPort"`
	} `ini:"net"`

	DB struct {
		DBPath string `ini:"dbPath"`
	} `ini:"database"`

	Common struct {
		LogSplitSize int `ini:"logSplitSize"`
	} `ini:"common"`
}

func LoadConfig(config *Config, path string) error {
	err := ini.MapTo(config, path)
	if err != nil {
		return err
	}

	// download
	if config.Download.APIID <= 0 {
		config.Download.APIID = telegram.TestAppID
	}
	if config.Download.APIHash == "" {
		config.Download.APIHash = telegram.TestAppHash
	}
	if config.Download.SessionDir == "" {
		config.Download.SessionDir = "./session"
	}
	if config.Download.DownloadDir == "" {
		config.Download.DownloadDir = "./downloads"
	}
	if config.Download.MaxRetry <= 0 {
		config.Download.MaxRetry = 5
	}
	if config.Download.PerSize <= 0 || config.Download.PerSize > 100 {
		config.Download.PerSize = 50
	}

	// database
	if config.DB.DBPath == "" {
		config.DB.DBPath = "./files.db"
	}

	// common
	if config.Common.LogSplitSize <= 0 {
		config.Common.LogSplitSize = 2
	}
	return nil
}
