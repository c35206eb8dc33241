package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/model"
	"mentor-hub/server/internal/repository"
	pkgerrors "mentor-hub/server/pkg/errors"
)

// ── 文章模块业务错误 ──

var (
	ErrPostNotFound        = errors.New("文章不存在")
	ErrPostNotEditable     = errors.New("审核中的文章不可编辑")
	ErrPostNotDeletable    = errors.New("已发布的文章请先下线再删除")
	ErrPostNotPublishable  = errors.New("仅审核通过的文章可切换发布状态")
	ErrPostNotSubmittable  = errors.New("仅草稿或被驳回的文章可提交审核")
	ErrSubmissionNotFound  = errors.New("审核记录不存在")
	ErrSubmissionProcessed = errors.New("该审核记录已处理")
)

// PostService 导师文章业务接口
type PostService interface {
	List(ctx context.Context, mentorID string, query *dto.PostListQuery) ([]dto.PostResponse, int64, error)
	Get(ctx context.Context, mentorID, postID string) (*dto.PostResponse, error)
	Create(ctx context.Context, mentorID string, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	Update(ctx context.Context, mentorID, postID string, req *dto.UpdatePostRequest) (*dto.PostResponse, error)
	Submit(ctx context.Context, mentorID, postID string) (*dto.PostResponse, error)
	Delete(ctx context.Context, mentorID, postID string) error
	TogglePublish(ctx context.Context, mentorID, postID string) (*dto.PostResponse, error)
	ListTags(ctx context.Context) ([]string, error)
	UploadThumbnail(ctx context.Context, filename string, data []byte) (*dto.UploadResponse, error)

	// 管理员审核
	ListSubmissions(ctx context.Context, query *dto.SubmissionListQuery) ([]dto.SubmissionResponse, int64, error)
	ReviewSubmission(ctx context.Context, adminID, submissionID string, req *dto.ReviewSubmissionRequest) (*dto.SubmissionResponse, error)
}

type postService struct {
	repo   *repository.Repository
	media  MediaService
	logger *zap.Logger
}

// NewPostService 创建 PostService 实例
func NewPostService(repo *repository.Repository, media MediaService, logger *zap.Logger) PostService {
	return &postService{repo: repo, media: media, logger: logger}
}

// ────────────────────── List ──────────────────────

// List 派生状态不在库中，先取全部候选再在内存中过滤、分页
func (s *postService) List(ctx context.Context, mentorID string, query *dto.PostListQuery) ([]dto.PostResponse, int64, error) {
	posts, err := s.repo.Post.ListByMentor(ctx, mentorID, repository.PostFilter{
		PostType: query.PostType,
		Tag:      query.Tag,
		Keyword:  query.Keyword,
	})
	if err != nil {
		s.logger.Error("查询文章列表失败", zap.String("mentor_id", mentorID), zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].PostID)
	}
	latest, err := s.repo.PostSubmission.LatestByPosts(ctx, ids)
	if err != nil {
		s.logger.Error("查询审核记录失败", zap.String("mentor_id", mentorID), zap.Error(err))
		return nil, 0, err
	}

	matched := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		resp := toPostResponse(&posts[i], latest[posts[i].PostID])
		if query.Status != "" && resp.Status != query.Status {
			continue
		}
		matched = append(matched, resp)
	}

	total := int64(len(matched))
	return paginate(matched, query.GetOffset(), query.GetPageSize()), total, nil
}

// ────────────────────── Get ──────────────────────

func (s *postService) Get(ctx context.Context, mentorID, postID string) (*dto.PostResponse, error) {
	post, latest, err := s.loadOwned(ctx, mentorID, postID)
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(post, latest)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *postService) Create(ctx context.Context, mentorID string, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	post := &model.Post{
		MentorID:     mentorID,
		Title:        strings.TrimSpace(req.Title),
		Summary:      req.Summary,
		Content:      req.Content,
		PostType:     req.PostType,
		ThumbnailURL: req.ThumbnailURL,
		Tags:         normalizeTags(req.Tags),
		Published:    false,
	}
	post.StampCreate(mentorID)

	var latest *model.PostSubmission
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Post.Create(ctx, post); err != nil {
			return err
		}
		if !req.Submit {
			return nil
		}
		latest = newPendingSubmission(post.PostID)
		return tx.PostSubmission.Create(ctx, latest)
	})
	if err != nil {
		s.logger.Error("创建文章失败", zap.String("mentor_id", mentorID), zap.Error(err))
		return nil, err
	}

	resp := toPostResponse(post, latest)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

// Update 已通过的文章再次编辑会在同一事务中生成新的待审记录，published 保持不变
func (s *postService) Update(ctx context.Context, mentorID, postID string, req *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	post, latest, err := s.loadOwned(ctx, mentorID, postID)
	if err != nil {
		return nil, err
	}
	if !CanEdit(latest) {
		return nil, ErrPostNotEditable
	}
	if req.Version != post.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		post.Summary = req.Summary
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.PostType != nil {
		post.PostType = *req.PostType
	}
	if req.ThumbnailURL != nil {
		post.ThumbnailURL = req.ThumbnailURL
	}
	if req.Tags != nil {
		post.Tags = normalizeTags(*req.Tags)
	}
	post.StampUpdate(mentorID)

	resubmit := latest != nil && latest.Status == model.SubmissionApproved
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Post.Update(ctx, post); err != nil {
			return err
		}
		if !resubmit {
			return nil
		}
		latest = newPendingSubmission(post.PostID)
		return tx.PostSubmission.Create(ctx, latest)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新文章失败", zap.String("post_id", postID), zap.Error(err))
		}
		return nil, err
	}

	resp := toPostResponse(post, latest)
	return &resp, nil
}

// ────────────────────── Submit ──────────────────────

func (s *postService) Submit(ctx context.Context, mentorID, postID string) (*dto.PostResponse, error) {
	post, latest, err := s.loadOwned(ctx, mentorID, postID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Status != model.SubmissionRejected {
		return nil, ErrPostNotSubmittable
	}

	sub := newPendingSubmission(post.PostID)
	if err := s.repo.PostSubmission.Create(ctx, sub); err != nil {
		s.logger.Error("提交审核失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	resp := toPostResponse(post, sub)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *postService) Delete(ctx context.Context, mentorID, postID string) error {
	post, latest, err := s.loadOwned(ctx, mentorID, postID)
	if err != nil {
		return err
	}
	if !CanDelete(post, latest) {
		return ErrPostNotDeletable
	}

	if err := s.repo.Post.Delete(ctx, postID, mentorID); err != nil {
		s.logger.Error("删除文章失败", zap.String("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── TogglePublish ──────────────────────

func (s *postService) TogglePublish(ctx context.Context, mentorID, postID string) (*dto.PostResponse, error) {
	post, latest, err := s.loadOwned(ctx, mentorID, postID)
	if err != nil {
		return nil, err
	}
	if !CanTogglePublish(latest) {
		return nil, ErrPostNotPublishable
	}

	post.Published = !post.Published
	if err := s.repo.Post.SetPublished(ctx, postID, post.Published, mentorID); err != nil {
		s.logger.Error("切换发布状态失败", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	resp := toPostResponse(post, latest)
	return &resp, nil
}

// ────────────────────── ListTags ──────────────────────

func (s *postService) ListTags(ctx context.Context) ([]string, error) {
	tags, err := s.repo.Post.DistinctTags(ctx)
	if err != nil {
		s.logger.Error("查询标签失败", zap.Error(err))
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// ────────────────────── UploadThumbnail ──────────────────────

func (s *postService) UploadThumbnail(ctx context.Context, filename string, data []byte) (*dto.UploadResponse, error) {
	return s.media.UploadImage(ctx, FolderPostThumbnails, filename, data)
}

// ────────────────────── ListSubmissions ──────────────────────

func (s *postService) ListSubmissions(ctx context.Context, query *dto.SubmissionListQuery) ([]dto.SubmissionResponse, int64, error) {
	subs, total, err := s.repo.PostSubmission.List(ctx, query.Status, query.GetOffset(), query.GetPageSize())
	if err != nil {
		s.logger.Error("查询审核列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SubmissionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, *toSubmissionResponse(&subs[i]))
	}
	return result, total, nil
}

// ────────────────────── ReviewSubmission ──────────────────────

// ReviewSubmission 审核通过即发布文章
func (s *postService) ReviewSubmission(ctx context.Context, adminID, submissionID string, req *dto.ReviewSubmissionRequest) (*dto.SubmissionResponse, error) {
	sub, err := s.repo.PostSubmission.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询审核记录失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}
	if sub.Status != model.SubmissionPending {
		return nil, ErrSubmissionProcessed
	}

	now := time.Now()
	sub.Status = req.Status
	sub.AdminNotes = req.AdminNotes
	sub.ReviewedAt = &now
	sub.ReviewedBy = &adminID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.PostSubmission.Update(ctx, sub); err != nil {
			return err
		}
		if sub.Status != model.SubmissionApproved {
			return nil
		}
		return tx.Post.SetPublished(ctx, sub.PostID, true, adminID)
	})
	if err != nil {
		s.logger.Error("审核文章失败", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, err
	}

	return toSubmissionResponse(sub), nil
}

// ── 内部方法 ──

// loadOwned 读取本人文章及其最新审核记录；非本人文章视为不存在
func (s *postService) loadOwned(ctx context.Context, mentorID, postID string) (*model.Post, *model.PostSubmission, error) {
	post, err := s.repo.Post.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPostNotFound
		}
		s.logger.Error("查询文章失败", zap.String("post_id", postID), zap.Error(err))
		return nil, nil, err
	}
	if post.MentorID != mentorID {
		return nil, nil, ErrPostNotFound
	}

	latest, err := s.repo.PostSubmission.Latest(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return post, nil, nil
		}
		s.logger.Error("查询审核记录失败", zap.String("post_id", postID), zap.Error(err))
		return nil, nil, err
	}
	return post, latest, nil
}

func newPendingSubmission(postID string) *model.PostSubmission {
	return &model.PostSubmission{
		PostID:      postID,
		Status:      model.SubmissionPending,
		SubmittedAt: time.Now(),
	}
}

// normalizeTags 去空白、去重，保持输入顺序
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func toPostResponse(p *model.Post, latest *model.PostSubmission) dto.PostResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	resp := dto.PostResponse{
		ID:               p.PostID,
		MentorID:         p.MentorID,
		Title:            p.Title,
		Summary:          p.Summary,
		Content:          p.Content,
		PostType:         p.PostType,
		ThumbnailURL:     p.ThumbnailURL,
		Tags:             tags,
		Published:        p.Published,
		Version:          p.Version,
		Status:           DerivePostStatus(p, latest),
		CanEdit:          CanEdit(latest),
		CanDelete:        CanDelete(p, latest),
		CanTogglePublish: CanTogglePublish(latest),
		CreatedAt:        formatTime(p.CreatedAt),
		UpdatedAt:        formatTime(p.UpdatedAt),
	}
	if latest != nil {
		resp.LatestSubmission = toSubmissionResponse(latest)
	}
	return resp
}

func toSubmissionResponse(sub *model.PostSubmission) *dto.SubmissionResponse {
	return &dto.SubmissionResponse{
		ID:          sub.SubmissionID,
		PostID:      sub.PostID,
		Status:      sub.Status,
		AdminNotes:  sub.AdminNotes,
		SubmittedAt: formatTime(sub.SubmittedAt),
		ReviewedAt:  formatTimePtr(sub.ReviewedAt),
	}
}
