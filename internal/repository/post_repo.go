package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"mentor-hub/server/internal/model"
	pkgerrors "mentor-hub/server/pkg/errors"
)

// PostFilter 文章查询条件（派生状态不在库中，由 service 层过滤）
type PostFilter struct {
	PostType string
	Tag      string
	Keyword  string
}

// PostRepository 文章数据访问接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	ListByMentor(ctx context.Context, mentorID string, filter PostFilter) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	SetPublished(ctx context.Context, postID string, published bool, updatedBy string) error
	Delete(ctx context.Context, id, deletedBy string) error
	DistinctTags(ctx context.Context) ([]string, error)
}

// PostSubmissionRepository 文章审核记录数据访问接口
type PostSubmissionRepository interface {
	Create(ctx context.Context, sub *model.PostSubmission) error
	GetByID(ctx context.Context, id string) (*model.PostSubmission, error)
	Latest(ctx context.Context, postID string) (*model.PostSubmission, error)
	LatestByPosts(ctx context.Context, postIDs []string) (map[string]*model.PostSubmission, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.PostSubmission, int64, error)
	Update(ctx context.Context, sub *model.PostSubmission) error
}

// ── Post Repository 实现 ──

type postRepo struct {
	db *gorm.DB
}

// NewPostRepo 创建 PostRepository 实例
func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Where("post_id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) ListByMentor(ctx context.Context, mentorID string, filter PostFilter) ([]model.Post, error) {
	db := r.db.WithContext(ctx).Where("mentor_id = ?", mentorID)

	if filter.PostType != "" {
		db = db.Where("post_type = ?", filter.PostType)
	}
	if filter.Tag != "" {
		db = db.Where("? = ANY(tags)", filter.Tag)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		db = db.Where("title ILIKE ? OR summary ILIKE ?", like, like)
	}

	var posts []model.Post
	err := db.Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (r *postRepo) Update(ctx context.Context, post *model.Post) error {
	oldVersion := post.Version
	result := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_id = ? AND version = ?", post.PostID, oldVersion).
		Updates(map[string]interface{}{
			"title":         post.Title,
			"summary":       post.Summary,
			"content":       post.Content,
			"post_type":     post.PostType,
			"thumbnail_url": post.ThumbnailURL,
			"tags":          post.Tags,
			"updated_by":    post.UpdatedBy,
			"updated_at":    gorm.Expr("NOW()"),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	post.Version = oldVersion + 1
	return nil
}

func (r *postRepo) SetPublished(ctx context.Context, postID string, published bool, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_id = ?", postID).
		Updates(map[string]interface{}{
			"published":  published,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *postRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *postRepo) DistinctTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := r.db.WithContext(ctx).
		Raw("SELECT DISTINCT UNNEST(tags) AS tag FROM posts WHERE deleted_at IS NULL ORDER BY tag").
		Scan(&tags).Error
	return tags, err
}

// ── PostSubmission Repository 实现 ──

type postSubmissionRepo struct {
	db *gorm.DB
}

// NewPostSubmissionRepo 创建 PostSubmissionRepository 实例
func NewPostSubmissionRepo(db *gorm.DB) PostSubmissionRepository {
	return &postSubmissionRepo{db: db}
}

func (r *postSubmissionRepo) Create(ctx context.Context, sub *model.PostSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *postSubmissionRepo) GetByID(ctx context.Context, id string) (*model.PostSubmission, error) {
	var sub model.PostSubmission
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *postSubmissionRepo) Latest(ctx context.Context, postID string) (*model.PostSubmission, error) {
	var sub model.PostSubmission
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("submitted_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// LatestByPosts 每篇文章只取最新一条审核记录
func (r *postSubmissionRepo) LatestByPosts(ctx context.Context, postIDs []string) (map[string]*model.PostSubmission, error) {
	result := make(map[string]*model.PostSubmission, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var subs []model.PostSubmission
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (post_id) * FROM post_submissions
		     WHERE post_id IN ? ORDER BY post_id, submitted_at DESC`, postIDs).
		Scan(&subs).Error
	if err != nil {
		return nil, err
	}
	for i := range subs {
		result[subs[i].PostID] = &subs[i]
	}
	return result, nil
}

func (r *postSubmissionRepo) List(ctx context.Context, status string, offset, limit int) ([]model.PostSubmission, int64, error) {
	var subs []model.PostSubmission
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PostSubmission{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("submitted_at DESC").
		Offset(offset).Limit(limit).
		Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *postSubmissionRepo) Update(ctx context.Context, sub *model.PostSubmission) error {
	return r.db.WithContext(ctx).
		Model(&model.PostSubmission{}).
		Where("submission_id = ?", sub.SubmissionID).
		Updates(map[string]interface{}{
			"status":      sub.Status,
			"admin_notes": sub.AdminNotes,
			"reviewed_at": sub.ReviewedAt,
			"reviewed_by": sub.ReviewedBy,
		}).Error
}
