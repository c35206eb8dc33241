package repository

import (
	"context"

	"gorm.io/gorm"

	"mentor-hub/server/internal/model"
	pkgerrors "mentor-hub/server/pkg/errors"
)

// MentorProfileRepository 导师资料数据访问接口
type MentorProfileRepository interface {
	Create(ctx context.Context, profile *model.MentorProfile) error
	GetByID(ctx context.Context, id string) (*model.MentorProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.MentorProfile, error)
	Update(ctx context.Context, profile *model.MentorProfile) error
}

// MentorRegistrationRepository 导师申请数据访问接口
type MentorRegistrationRepository interface {
	Create(ctx context.Context, reg *model.MentorRegistration) error
	GetByID(ctx context.Context, id string) (*model.MentorRegistration, error)
	LatestByUser(ctx context.Context, userID string) (*model.MentorRegistration, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.MentorRegistration, int64, error)
	Update(ctx context.Context, reg *model.MentorRegistration) error
}

// ── MentorProfile Repository 实现 ──

type mentorProfileRepo struct {
	db *gorm.DB
}

// NewMentorProfileRepo 创建 MentorProfileRepository 实例
func NewMentorProfileRepo(db *gorm.DB) MentorProfileRepository {
	return &mentorProfileRepo{db: db}
}

func (r *mentorProfileRepo) Create(ctx context.Context, profile *model.MentorProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *mentorProfileRepo) GetByID(ctx context.Context, id string) (*model.MentorProfile, error) {
	var profile model.MentorProfile
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", id).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *mentorProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.MentorProfile, error) {
	var profile model.MentorProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update 整体写回资料与四个数组（乐观锁）
func (r *mentorProfileRepo) Update(ctx context.Context, profile *model.MentorProfile) error {
	oldVersion := profile.Version
	result := r.db.WithContext(ctx).
		Model(&model.MentorProfile{}).
		Where("profile_id = ? AND version = ?", profile.ProfileID, oldVersion).
		Updates(map[string]interface{}{
			"headline":            profile.Headline,
			"bio":                 profile.Bio,
			"company":             profile.Company,
			"job_title":           profile.JobTitle,
			"years_of_experience": profile.YearsOfExperience,
			"linkedin_url":        profile.LinkedInURL,
			"avatar_url":          profile.AvatarURL,
			"skills":              profile.Skills,
			"work_experiences":    profile.WorkExperiences,
			"educations":          profile.Educations,
			"activities":          profile.Activities,
			"updated_by":          profile.UpdatedBy,
			"updated_at":          gorm.Expr("NOW()"),
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	profile.Version = oldVersion + 1
	return nil
}

// ── MentorRegistration Repository 实现 ──

type mentorRegistrationRepo struct {
	db *gorm.DB
}

// NewMentorRegistrationRepo 创建 MentorRegistrationRepository 实例
func NewMentorRegistrationRepo(db *gorm.DB) MentorRegistrationRepository {
	return &mentorRegistrationRepo{db: db}
}

func (r *mentorRegistrationRepo) Create(ctx context.Context, reg *model.MentorRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *mentorRegistrationRepo) GetByID(ctx context.Context, id string) (*model.MentorRegistration, error) {
	var reg model.MentorRegistration
	err := r.db.WithContext(ctx).
		Where("registration_id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *mentorRegistrationRepo) LatestByUser(ctx context.Context, userID string) (*model.MentorRegistration, error) {
	var reg model.MentorRegistration
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *mentorRegistrationRepo) List(ctx context.Context, status string, offset, limit int) ([]model.MentorRegistration, int64, error) {
	var regs []model.MentorRegistration
	var total int64

	db := r.db.WithContext(ctx).Model(&model.MentorRegistration{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&regs).Error; err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

func (r *mentorRegistrationRepo) Update(ctx context.Context, reg *model.MentorRegistration) error {
	return r.db.WithContext(ctx).
		Model(&model.MentorRegistration{}).
		Where("registration_id = ?", reg.RegistrationID).
		Updates(map[string]interface{}{
			"status":      reg.Status,
			"admin_notes": reg.AdminNotes,
			"reviewed_at": reg.ReviewedAt,
			"reviewed_by": reg.ReviewedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}
