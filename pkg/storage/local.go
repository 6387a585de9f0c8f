package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 本地磁盘存储（开发环境及单机部署）
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore 创建本地存储，root 为素材根目录，baseURL 为对外访问前缀
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Open 打开素材文件
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(k)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, k)
		}
		return nil, fmt.Errorf("打开本地素材失败: %w", err)
	}
	return f, nil
}

// PublicURL 返回素材的公开访问地址
func (s *LocalStore) PublicURL(key string) string {
	k, err := CleanKey(key)
	if err != nil {
		return key
	}
	return s.baseURL + "/" + k
}
