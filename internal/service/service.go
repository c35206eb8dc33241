package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/repository"
	"mentor-hub/server/pkg/jwt"
	"mentor-hub/server/pkg/storage"
)

// TokenBlacklist 登出 Token 黑名单（*redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// DraftStore 实时预览主草稿存储（*redis.Client 实现）
type DraftStore interface {
	SaveDraft(ctx context.Context, postID, content string, ttl time.Duration) error
	GetDraft(ctx context.Context, postID string) (string, bool, error)
	DeleteDraft(ctx context.Context, postID string) error
}

// Locker 分布式锁（*redis.Client 实现）；release 可重复调用
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Deps 可选的外部依赖；为 nil 时使用进程内实现
type Deps struct {
	Blacklist TokenBlacklist
	Drafts    DraftStore
	Locker    Locker
	Uploader  storage.Uploader
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth               AuthService
	Booking            BookingService
	Post               PostService
	Preview            PreviewService
	Event              EventService
	CheckIn            CheckInService
	Export             ExportService
	Profile            ProfileService
	MentorRegistration MentorRegistrationService
	Media              MediaService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	if deps.Drafts == nil {
		deps.Drafts = NewMemoryDraftStore()
	}
	if deps.Locker == nil {
		deps.Locker = NewMemoryLocker()
	}

	media := NewMediaService(deps.Uploader, &cfg.Storage, logger)

	return &Service{
		Auth:               NewAuthService(repo, jwtMgr, deps.Blacklist, logger),
		Booking:            NewBookingService(repo, logger),
		Post:               NewPostService(repo, media, logger),
		Preview:            NewPreviewService(repo, deps.Drafts, deps.Locker, &cfg.Preview, logger),
		Event:              NewEventService(repo, media, logger),
		CheckIn:            NewCheckInService(repo, &cfg.CheckIn, logger),
		Export:             NewExportService(repo, logger),
		Profile:            NewProfileService(repo, media, logger),
		MentorRegistration: NewMentorRegistrationService(repo, logger),
		Media:              media,
	}
}

// ── 通用辅助 ──

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// paginate 对已在内存中的结果切片分页
func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
