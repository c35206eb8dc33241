package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"

	"mentor-hub/server/config"
)

// OSSStorage 阿里云 OSS 上传实现
type OSSStorage struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
	publicBase string
	prefix     string
}

// NewOSS 创建 OSS 客户端并校验 Bucket
func NewOSS(cfg *config.StorageConfig, logger *zap.Logger) (*OSSStorage, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("创建 OSS 客户端失败: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("获取 OSS Bucket 失败: %w", err)
	}

	// AccessDenied 时仅告警：子账号可能没有 GetBucketLocation 权限
	if loc, err := client.GetBucketLocation(cfg.Bucket); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 {
			logger.Warn("跳过 OSS Bucket 位置校验", zap.String("bucket", cfg.Bucket))
		} else {
			return nil, fmt.Errorf("校验 OSS Bucket 失败: %w", err)
		}
	} else {
		logger.Info("OSS 连接成功", zap.String("bucket", cfg.Bucket), zap.String("location", loc))
	}

	return &OSSStorage{
		bucket:     bucket,
		endpoint:   cfg.Endpoint,
		bucketName: cfg.Bucket,
		publicBase: cfg.PublicBase,
		prefix:     cfg.Prefix,
	}, nil
}

// Upload 上传对象并返回公开 URL
func (s *OSSStorage) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	key := ObjectKey(s.prefix, folder, filename)

	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := s.bucket.PutObject(key, r, opts...); err != nil {
		return "", fmt.Errorf("上传 OSS 失败: %w", err)
	}

	return PublicURL(s.publicBase, s.bucketName, s.endpoint, key), nil
}

// PublicURL 优先使用自定义域名，否则拼接 bucket.endpoint
func PublicURL(publicBase, bucketName, endpoint, key string) string {
	if publicBase != "" {
		return strings.TrimRight(publicBase, "/") + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", bucketName, end, key)
}
