package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/service"
	pkgerrors "mentor-hub/server/pkg/errors"
)

const (
	checkInSweepLockKey = "cron:checkin-sweep"
	checkInSweepLockTTL = 2 * time.Minute
	jobTimeout          = time.Minute
)

// LockRunner 跨实例互斥执行（*redis.Client 实现）
type LockRunner interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Scheduler 定时任务：清理过期签到码、回收空闲预览会话
type Scheduler struct {
	cron    *cron.Cron
	checkIn service.CheckInService
	preview service.PreviewService
	locker  LockRunner
	logger  *zap.Logger
	now     func() time.Time
}

// New 创建调度器并注册任务；locker 为 nil 时单实例运行
func New(
	cfg *config.CronConfig,
	checkIn service.CheckInService,
	preview service.PreviewService,
	locker LockRunner,
	logger *zap.Logger,
) (*Scheduler, error) {
	cl := cronLogger{logger: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		checkIn: checkIn,
		preview: preview,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.CheckInSweep, s.runCheckInSweep); err != nil {
		return nil, fmt.Errorf("注册签到码清理任务失败: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.PreviewReaper, s.runPreviewReaper); err != nil {
		return nil, fmt.Errorf("注册预览回收任务失败: %w", err)
	}

	return s, nil
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时任务已启动", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop 停止调度，返回的 context 在运行中的任务结束后完成
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runCheckInSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.SweepCheckInCodes(ctx); err != nil {
		if errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			s.logger.Debug("签到码清理已由其他实例执行")
			return
		}
		s.logger.Error("签到码清理失败", zap.Error(err))
	}
}

func (s *Scheduler) runPreviewReaper() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.ReapPreviews(ctx)
}

// SweepCheckInCodes 停用已过期的签到码，多实例部署时只有持锁者执行
func (s *Scheduler) SweepCheckInCodes(ctx context.Context) error {
	job := func(ctx context.Context) error {
		n, err := s.checkIn.SweepExpired(ctx, s.now())
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("已停用过期签到码", zap.Int64("count", n))
		}
		return nil
	}

	if s.locker == nil {
		return job(ctx)
	}
	return s.locker.WithLock(ctx, checkInSweepLockKey, checkInSweepLockTTL, job)
}

// ReapPreviews 关闭本实例中空闲超时的预览会话
func (s *Scheduler) ReapPreviews(ctx context.Context) int {
	n := s.preview.ReapIdle(ctx, s.now())
	if n > 0 {
		s.logger.Info("已回收空闲预览会话", zap.Int("count", n))
	}
	return n
}

// cronLogger 将 cron 内部日志接入 zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
