package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Uploader 对象存储上传接口，返回可公开访问的 URL
type Uploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
}

// ObjectKey 生成对象 Key：<prefix>/<folder>/<slug>_<时间戳>_<随机串><ext>
func ObjectKey(prefix, folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slugify(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	name := fmt.Sprintf("%s_%s_%s%s", base, time.Now().Format("20060102_150405"), randHex(3), ext)
	return path.Join(strings.Trim(prefix, "/"), strings.Trim(folder, "/"), name)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "file"
	}
	return s
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ── 本地磁盘存储（未配置 OSS 时降级使用） ──

// LocalStorage 将文件写入本地目录，通过静态路由对外提供
type LocalStorage struct {
	dir     string
	baseURL string
	prefix  string
}

// NewLocal 创建本地存储
func NewLocal(dir, baseURL, prefix string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), prefix: prefix}
}

// Dir 本地根目录
func (s *LocalStorage) Dir() string { return s.dir }

// Upload 写入本地文件并返回访问 URL
func (s *LocalStorage) Upload(_ context.Context, folder, filename, _ string, r io.Reader) (string, error) {
	key := ObjectKey(s.prefix, folder, filename)
	full := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return s.baseURL + "/static/" + key, nil
}
