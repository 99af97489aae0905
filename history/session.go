package history

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSessionStorage 把gotd会话保存为本地JSON文件
type FileSessionStorage struct {
	FilePath string
}

func (f FileSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.FilePath)
	if os.IsNotExist(err) {
		return nil, nil // 文件不存在时返回空，首次登录后再写入
	}
	return data, err
}

func (f FileSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	return os.WriteFile(f.FilePath, data, 0644)
}

// FindSession 在目录中查找第一个JSON会话文件，找不到返回空串
func FindSession(sessionDir string) (name, path string, err error) {
	err = filepath.WalkDir(sessionDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if filepath.Ext(p) == ".json" {
			path = p
			name = strings.TrimSuffix(filepath.Base(p), ".json")
			return filepath.SkipAll
		}
		return nil
	})
	return name, path, err
}

// CleanSession 账号失效后把会话文件改名备份
func CleanSession(sessionPath string) error {
	if _, err := os.Stat(sessionPath); err != nil {
		return err
	}
	return os.Rename(sessionPath, sessionPath+".bak")
}
