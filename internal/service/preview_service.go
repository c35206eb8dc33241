package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/livepreview"
	"mentor-hub/server/internal/repository"
	pkgerrors "mentor-hub/server/pkg/errors"
)

// ── 实时预览业务错误 ──

var (
	ErrPreviewNotFound     = errors.New("预览会话不存在或已关闭")
	ErrPreviewBusy         = errors.New("该文章正在其他窗口中预览")
	ErrPreviewDraftMissing = errors.New("预览草稿不存在")
	errLiveEditorGone      = errors.New("预览编辑器未提供最终内容")
)

const previewLockPrefix = "preview:lock:"

// mdRenderer 不输出原始 HTML
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
)

// PreviewService 文章实时预览：预览端推送内容，经防抖/限流回写到主草稿
type PreviewService interface {
	Open(ctx context.Context, mentorID, postID string) (*dto.OpenPreviewResponse, error)
	Push(ctx context.Context, mentorID, sessionID, content string) error
	Render(ctx context.Context, mentorID, sessionID string) (*dto.PreviewRenderResponse, error)
	Draft(ctx context.Context, mentorID, postID string) (*dto.PreviewDraftResponse, error)
	// Close final 为预览端的最终内容；nil 表示预览端不可用，回退到最近一次推送
	Close(ctx context.Context, mentorID, sessionID string, final *string) (*dto.PreviewDraftResponse, error)
	ReapIdle(ctx context.Context, now time.Time) int
	CloseAll(ctx context.Context) int
}

type previewSession struct {
	id       string
	mentorID string
	postID   string
	syncer   *livepreview.Syncer
	live     *liveSource
}

// liveSource 关闭时由请求提供的预览端内容
type liveSource struct {
	mu      sync.Mutex
	content *string
}

func (l *liveSource) set(content *string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.content = content
}

func (l *liveSource) Content(context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.content == nil {
		return "", errLiveEditorGone
	}
	return *l.content, nil
}

// draftSink 主草稿写入端
type draftSink struct {
	drafts DraftStore
	postID string
	ttl    time.Duration
}

func (d *draftSink) WriteBack(ctx context.Context, content string) error {
	return d.drafts.SaveDraft(ctx, d.postID, content, d.ttl)
}

type previewService struct {
	repo   *repository.Repository
	drafts DraftStore
	locker Locker
	cfg    *config.PreviewConfig
	clock  livepreview.Clock
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*previewSession
}

// NewPreviewService 创建 PreviewService 实例
func NewPreviewService(
	repo *repository.Repository,
	drafts DraftStore,
	locker Locker,
	cfg *config.PreviewConfig,
	logger *zap.Logger,
) PreviewService {
	return &previewService{
		repo:     repo,
		drafts:   drafts,
		locker:   locker,
		cfg:      cfg,
		clock:    livepreview.RealClock(),
		logger:   logger,
		sessions: make(map[string]*previewSession),
	}
}

// ────────────────────── Open ──────────────────────

func (s *previewService) Open(ctx context.Context, mentorID, postID string) (*dto.OpenPreviewResponse, error) {
	post, err := s.repo.Post.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("查询文章失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	if post.MentorID != mentorID {
		return nil, ErrPostNotFound
	}

	// 同一文章同一时间只允许一个预览会话
	release, err := s.locker.AcquireLock(ctx, previewLockPrefix+postID, s.draftTTL())
	if err != nil {
		if errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return nil, ErrPreviewBusy
		}
		s.logger.Error("获取预览锁失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	if err := s.drafts.SaveDraft(ctx, postID, post.Content, s.draftTTL()); err != nil {
		release()
		s.logger.Error("写入预览草稿失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	session := &previewSession{
		id:       uuid.NewString(),
		mentorID: mentorID,
		postID:   postID,
		live:     &liveSource{},
	}
	session.syncer = livepreview.NewSyncer(
		session.live,
		&draftSink{drafts: s.drafts, postID: postID, ttl: s.draftTTL()},
		livepreview.Options{
			Debounce:      s.cfg.Debounce,
			MinInterval:   s.cfg.MinInterval,
			ForceInterval: s.cfg.ForceInterval,
			Clock:         s.clock,
			Logger:        s.logger.With(zap.String("post_id", postID)),
			OnUnmount: func() {
				s.mu.Lock()
				delete(s.sessions, session.id)
				s.mu.Unlock()
				release()
			},
		},
	)
	if err := session.syncer.Open(post.Content); err != nil {
		release()
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	return &dto.OpenPreviewResponse{
		SessionID: session.id,
		PostID:    postID,
		Content:   post.Content,
		State:     livepreview.StateOpen.String(),
	}, nil
}

// ────────────────────── Push ──────────────────────

func (s *previewService) Push(_ context.Context, mentorID, sessionID, content string) error {
	session, err := s.session(mentorID, sessionID)
	if err != nil {
		return err
	}
	if err := session.syncer.Push(content); err != nil {
		if errors.Is(err, livepreview.ErrNotOpen) {
			return ErrPreviewNotFound
		}
		return err
	}
	return nil
}

// ────────────────────── Render ──────────────────────

func (s *previewService) Render(ctx context.Context, mentorID, sessionID string) (*dto.PreviewRenderResponse, error) {
	session, err := s.session(mentorID, sessionID)
	if err != nil {
		return nil, err
	}

	content, ok, err := s.drafts.GetDraft(ctx, session.postID)
	if err != nil {
		s.logger.Error("读取预览草稿失败", zap.String("post_id", session.postID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrPreviewDraftMissing
	}

	html, err := RenderMarkdown(content)
	if err != nil {
		s.logger.Error("渲染预览失败", zap.String("post_id", session.postID), zap.Error(err))
		return nil, err
	}

	return &dto.PreviewRenderResponse{
		SessionID: sessionID,
		HTML:      html,
		State:     session.syncer.State().String(),
	}, nil
}

// RenderMarkdown 渲染为 HTML
func RenderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ────────────────────── Draft ──────────────────────

func (s *previewService) Draft(ctx context.Context, mentorID, postID string) (*dto.PreviewDraftResponse, error) {
	post, err := s.repo.Post.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("查询文章失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	if post.MentorID != mentorID {
		return nil, ErrPostNotFound
	}

	content, ok, err := s.drafts.GetDraft(ctx, postID)
	if err != nil {
		s.logger.Error("读取预览草稿失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrPreviewDraftMissing
	}
	return &dto.PreviewDraftResponse{PostID: postID, Content: content}, nil
}

// ────────────────────── Close ──────────────────────

// Close 最终内容写入主草稿后才释放会话与锁
func (s *previewService) Close(ctx context.Context, mentorID, sessionID string, final *string) (*dto.PreviewDraftResponse, error) {
	session, err := s.session(mentorID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.closeSession(ctx, session, final)
}

func (s *previewService) closeSession(ctx context.Context, session *previewSession, final *string) (*dto.PreviewDraftResponse, error) {
	session.live.set(final)
	if err := session.syncer.Close(ctx); err != nil {
		if errors.Is(err, livepreview.ErrNotOpen) {
			return nil, ErrPreviewNotFound
		}
		s.logger.Error("关闭预览失败", zap.String("post_id", session.postID), zap.Error(err))
		return nil, err
	}

	content, _, err := s.drafts.GetDraft(ctx, session.postID)
	if err != nil {
		s.logger.Error("读取预览草稿失败", zap.String("post_id", session.postID), zap.Error(err))
		return nil, err
	}
	return &dto.PreviewDraftResponse{PostID: session.postID, Content: content}, nil
}

// ────────────────────── ReapIdle ──────────────────────

// ReapIdle 关闭空闲超时的会话，返回关闭数量
func (s *previewService) ReapIdle(ctx context.Context, now time.Time) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}
	return s.closeWhere(ctx, func(session *previewSession) bool {
		return now.Sub(session.syncer.LastActivity()) >= s.cfg.IdleTimeout
	})
}

// CloseAll 关闭全部会话并写回最终内容，用于进程退出
func (s *previewService) CloseAll(ctx context.Context) int {
	return s.closeWhere(ctx, func(*previewSession) bool { return true })
}

func (s *previewService) closeWhere(ctx context.Context, match func(*previewSession) bool) int {
	s.mu.Lock()
	var targets []*previewSession
	for _, session := range s.sessions {
		if match(session) {
			targets = append(targets, session)
		}
	}
	s.mu.Unlock()

	closed := 0
	for _, session := range targets {
		if _, err := s.closeSession(ctx, session, nil); err != nil {
			s.logger.Warn("关闭预览会话失败", zap.String("session_id", session.id), zap.Error(err))
			continue
		}
		closed++
	}
	return closed
}

// ── 内部方法 ──

func (s *previewService) session(mentorID, sessionID string) (*previewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.mentorID != mentorID {
		return nil, ErrPreviewNotFound
	}
	return session, nil
}

// draftTTL 草稿与锁的过期时间覆盖空闲回收周期
func (s *previewService) draftTTL() time.Duration {
	if s.cfg.IdleTimeout <= 0 {
		return time.Hour
	}
	return 2 * s.cfg.IdleTimeout
}
