package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/dto"
	pkgerrors "mentor-hub/server/pkg/errors"
)

type stubCheckIn struct {
	sweeps int
	at     time.Time
	n      int64
	err    error
}

func (s *stubCheckIn) CreateCode(context.Context, string, string, *dto.CreateCheckInCodeRequest) (*dto.CheckInCodeResponse, error) {
	return nil, nil
}
func (s *stubCheckIn) ListCodes(context.Context, string) ([]dto.CheckInCodeResponse, error) {
	return nil, nil
}
func (s *stubCheckIn) DeactivateCode(context.Context, string, string) (*dto.CheckInCodeResponse, error) {
	return nil, nil
}
func (s *stubCheckIn) DeleteCode(context.Context, string) error { return nil }
func (s *stubCheckIn) CheckIn(context.Context, string, *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	return nil, nil
}
func (s *stubCheckIn) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	s.sweeps++
	s.at = now
	return s.n, s.err
}

type stubPreview struct {
	reaped int
}

func (s *stubPreview) Open(context.Context, string, string) (*dto.OpenPreviewResponse, error) {
	return nil, nil
}
func (s *stubPreview) Push(context.Context, string, string, string) error { return nil }
func (s *stubPreview) Render(context.Context, string, string) (*dto.PreviewRenderResponse, error) {
	return nil, nil
}
func (s *stubPreview) Draft(context.Context, string, string) (*dto.PreviewDraftResponse, error) {
	return nil, nil
}
func (s *stubPreview) Close(context.Context, string, string, *string) (*dto.PreviewDraftResponse, error) {
	return nil, nil
}
func (s *stubPreview) ReapIdle(context.Context, time.Time) int { return s.reaped }
func (s *stubPreview) CloseAll(context.Context) int { return 0 }

type stubLock struct {
	held bool
	keys []string
}

func (l *stubLock) WithLock(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) error {
	if l.held {
		return pkgerrors.ErrLockNotAcquired
	}
	l.keys = append(l.keys, key)
	return fn(ctx)
}

func newScheduler(t *testing.T, checkIn *stubCheckIn, preview *stubPreview, locker LockRunner) *Scheduler {
	t.Helper()
	cfg := &config.CronConfig{CheckInSweep: "@every 5m", PreviewReaper: "@every 1m"}
	s, err := New(cfg, checkIn, preview, locker, zap.NewNop())
	if err != nil {
		t.Fatalf("创建调度器失败: %v", err)
	}
	return s
}

func TestNew_InvalidCronExpr(t *testing.T) {
	cfg := &config.CronConfig{CheckInSweep: "not a cron expr", PreviewReaper: "@every 1m"}
	if _, err := New(cfg, &stubCheckIn{}, &stubPreview{}, nil, zap.NewNop()); err == nil {
		t.Error("非法 cron 表达式应返回错误")
	}
}

func TestSweepCheckInCodes_WithoutLocker(t *testing.T) {
	checkIn := &stubCheckIn{n: 3}
	s := newScheduler(t, checkIn, &stubPreview{}, nil)
	fixed := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.SweepCheckInCodes(context.Background()); err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if checkIn.sweeps != 1 || !checkIn.at.Equal(fixed) {
		t.Errorf("应以当前时间执行一次清理: sweeps=%d at=%v", checkIn.sweeps, checkIn.at)
	}
}

func TestSweepCheckInCodes_UsesLock(t *testing.T) {
	checkIn := &stubCheckIn{}
	lock := &stubLock{}
	s := newScheduler(t, checkIn, &stubPreview{}, lock)

	if err := s.SweepCheckInCodes(context.Background()); err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if len(lock.keys) != 1 || lock.keys[0] != checkInSweepLockKey {
		t.Errorf("应持锁执行，实际 keys=%v", lock.keys)
	}
}

func TestSweepCheckInCodes_LockHeldSkips(t *testing.T) {
	checkIn := &stubCheckIn{}
	s := newScheduler(t, checkIn, &stubPreview{}, &stubLock{held: true})

	err := s.SweepCheckInCodes(context.Background())
	if !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
		t.Errorf("锁被占用时应返回 ErrLockNotAcquired，实际 %v", err)
	}
	if checkIn.sweeps != 0 {
		t.Error("未持锁时不应执行清理")
	}
	s.runCheckInSweep()
}

func TestSweepCheckInCodes_PropagatesError(t *testing.T) {
	checkIn := &stubCheckIn{err: errors.New("db down")}
	s := newScheduler(t, checkIn, &stubPreview{}, nil)

	if err := s.SweepCheckInCodes(context.Background()); err == nil {
		t.Error("清理失败时应返回错误")
	}
}

func TestReapPreviews(t *testing.T) {
	s := newScheduler(t, &stubCheckIn{}, &stubPreview{reaped: 2}, nil)
	if n := s.ReapPreviews(context.Background()); n != 2 {
		t.Errorf("期望回收 2 个会话，实际 %d", n)
	}
}

func TestStartStop(t *testing.T) {
	s := newScheduler(t, &stubCheckIn{}, &stubPreview{}, nil)
	s.Start()
	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Error("停止调度器超时")
	}
}
