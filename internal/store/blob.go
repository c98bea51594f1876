package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore 二进制制品存储，按相对路径寻址
// 元数据与 blob 分属两种资源，之间没有事务；上传顺序为 blob 先行，
// 删除顺序为元数据先行 + blob 尽力而为
type BlobStore interface {
	// Save 写入 blob，返回写入字节数
	Save(path string, r io.Reader) (int64, error)
	Open(path string) (io.ReadCloser, error)
	// Remove 删除 blob；文件不存在不算错误
	Remove(path string) error
	Exists(path string) bool
}

// FSBlobStore 本地文件系统实现，所有路径都限制在 baseDir 之下
type FSBlobStore struct {
	baseDir string
}

func NewFSBlobStore(baseDir string) *FSBlobStore {
	return &FSBlobStore{baseDir: baseDir}
}

func (s *FSBlobStore) Save(path string, r io.Reader) (int64, error) {
	full, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("create blob dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("create blob file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("write blob: %w", err)
	}
	return n, nil
}

func (s *FSBlobStore) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *FSBlobStore) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (s *FSBlobStore) Exists(path string) bool {
	full, err := s.resolve(path)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(full)
	return statErr == nil
}

// resolve 拼接并校验路径，拒绝越出 baseDir 的访问
func (s *FSBlobStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	full := filepath.Join(s.baseDir, cleaned)
	base := filepath.Clean(s.baseDir)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob path: %s", path)
	}
	return full, nil
}
