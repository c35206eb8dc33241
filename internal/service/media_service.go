package service

import (
	"bytes"
	"context"
	"errors"

	"go.uber.org/zap"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/dto"
	"mentor-hub/server/pkg/storage"
)

// ── 上传模块业务错误 ──

var (
	ErrUploadDisabled    = errors.New("未配置对象存储，无法上传")
	ErrUploadTooLarge    = errors.New("文件过大")
	ErrUploadUnsupported = errors.New("不支持的图片格式（仅支持 jpg/png/gif/webp）")
	ErrUploadEmpty       = errors.New("上传文件为空")
)

// 上传目录
const (
	FolderPostThumbnails  = "posts/thumbnails"
	FolderEventThumbnails = "events/thumbnails"
	FolderAvatars         = "avatars"
)

// MediaService 图片上传：缩放 → WebP → 对象存储
type MediaService interface {
	UploadImage(ctx context.Context, folder, filename string, data []byte) (*dto.UploadResponse, error)
}

type mediaService struct {
	uploader storage.Uploader
	cfg      *config.StorageConfig
	logger   *zap.Logger
}

// NewMediaService 创建 MediaService 实例；uploader 为 nil 时上传不可用
func NewMediaService(uploader storage.Uploader, cfg *config.StorageConfig, logger *zap.Logger) MediaService {
	return &mediaService{uploader: uploader, cfg: cfg, logger: logger}
}

func (s *mediaService) UploadImage(ctx context.Context, folder, filename string, data []byte) (*dto.UploadResponse, error) {
	if s.uploader == nil {
		return nil, ErrUploadDisabled
	}
	if len(data) == 0 {
		return nil, ErrUploadEmpty
	}
	if s.cfg.MaxUploadSize > 0 && int64(len(data)) > s.cfg.MaxUploadSize {
		return nil, ErrUploadTooLarge
	}

	out, err := storage.ToWebP(data, storage.ImageOptions{
		MaxWidth:  s.cfg.ImageMaxWidth,
		MaxHeight: s.cfg.ImageMaxHeight,
		Quality:   s.cfg.WebPQuality,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return nil, ErrUploadUnsupported
		}
		s.logger.Error("图片转码失败", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, folder, storage.WebPFilename(filename), "image/webp", bytes.NewReader(out))
	if err != nil {
		s.logger.Error("上传图片失败", zap.String("folder", folder), zap.Error(err))
		return nil, err
	}

	return &dto.UploadResponse{URL: url}, nil
}
