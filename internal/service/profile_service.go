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

// ── 导师资料业务错误 ──

var (
	ErrProfileNotFound     = errors.New("导师资料不存在")
	ErrProfileEntryInvalid = errors.New("资料条目缺少必填的名称或标题")
	ErrProfileDateInvalid  = errors.New("日期格式应为 YYYY-MM 或 YYYY-MM-DD")
	ErrProfileDateOrder    = errors.New("结束日期不能早于开始日期")
)

// ProfileService 导师资料业务接口
type ProfileService interface {
	GetMine(ctx context.Context, userID string) (*dto.MentorProfileResponse, error)
	SaveMine(ctx context.Context, userID string, req *dto.SaveMentorProfileRequest) (*dto.MentorProfileResponse, error)
	GetPublic(ctx context.Context, profileID string) (*dto.MentorProfileResponse, error)
	UploadAvatar(ctx context.Context, userID, filename string, data []byte) (*dto.UploadResponse, error)
}

type profileService struct {
	repo   *repository.Repository
	media  MediaService
	logger *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, media MediaService, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, media: media, logger: logger}
}

// ────────────────────── GetMine ──────────────────────

func (s *profileService) GetMine(ctx context.Context, userID string) (*dto.MentorProfileResponse, error) {
	profile, err := s.getByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toProfileResponse(profile)
	return &resp, nil
}

// ────────────────────── SaveMine ──────────────────────

// SaveMine 资料字段与四个数组整体替换，一次写入
func (s *profileService) SaveMine(ctx context.Context, userID string, req *dto.SaveMentorProfileRequest) (*dto.MentorProfileResponse, error) {
	if err := validateProfileEntries(req); err != nil {
		return nil, err
	}

	profile, err := s.getByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Version != profile.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	profile.Headline = trimPtr(req.Headline)
	profile.Bio = trimPtr(req.Bio)
	profile.Company = trimPtr(req.Company)
	profile.JobTitle = trimPtr(req.JobTitle)
	profile.YearsOfExperience = req.YearsOfExperience
	profile.LinkedInURL = trimPtr(req.LinkedInURL)
	profile.AvatarURL = trimPtr(req.AvatarURL)
	profile.Skills = nonNil(req.Skills)
	profile.WorkExperiences = nonNil(req.WorkExperiences)
	profile.Educations = nonNil(req.Educations)
	profile.Activities = nonNil(req.Activities)
	profile.StampUpdate(userID)

	if err := s.repo.MentorProfile.Update(ctx, profile); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("保存导师资料失败", zap.String("profile_id", profile.ProfileID), zap.Error(err))
		}
		return nil, err
	}

	resp := toProfileResponse(profile)
	return &resp, nil
}

// ────────────────────── GetPublic ──────────────────────

// GetPublic 公开资料，仅包含 published=true 的条目
func (s *profileService) GetPublic(ctx context.Context, profileID string) (*dto.MentorProfileResponse, error) {
	profile, err := s.repo.MentorProfile.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询导师资料失败", zap.String("profile_id", profileID), zap.Error(err))
		return nil, err
	}

	resp := toProfileResponse(profile)
	resp.Skills = publishedOnly(resp.Skills, func(e model.SkillEntry) bool { return e.Published })
	resp.WorkExperiences = publishedOnly(resp.WorkExperiences, func(e model.WorkExperience) bool { return e.Published })
	resp.Educations = publishedOnly(resp.Educations, func(e model.Education) bool { return e.Published })
	resp.Activities = publishedOnly(resp.Activities, func(e model.Activity) bool { return e.Published })
	return &resp, nil
}

// ────────────────────── UploadAvatar ──────────────────────

// UploadAvatar 上传头像并立即写回资料，同时同步用户头像
func (s *profileService) UploadAvatar(ctx context.Context, userID, filename string, data []byte) (*dto.UploadResponse, error) {
	profile, err := s.getByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.media.UploadImage(ctx, FolderAvatars, filename, data)
	if err != nil {
		return nil, err
	}

	profile.AvatarURL = &uploaded.URL
	profile.StampUpdate(userID)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.MentorProfile.Update(ctx, profile); err != nil {
			return err
		}
		return tx.User.UpdateAvatar(ctx, userID, uploaded.URL)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新头像失败", zap.String("profile_id", profile.ProfileID), zap.Error(err))
		}
		return nil, err
	}
	return uploaded, nil
}

// ── 辅助函数 ──

func (s *profileService) getByUser(ctx context.Context, userID string) (*model.MentorProfile, error) {
	profile, err := s.repo.MentorProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询导师资料失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return profile, nil
}

func validateProfileEntries(req *dto.SaveMentorProfileRequest) error {
	for _, sk := range req.Skills {
		if strings.TrimSpace(sk.Name) == "" {
			return ErrProfileEntryInvalid
		}
	}
	for _, w := range req.WorkExperiences {
		if strings.TrimSpace(w.Company) == "" || strings.TrimSpace(w.Title) == "" {
			return ErrProfileEntryInvalid
		}
		if err := checkDateRange(w.StartDate, w.EndDate); err != nil {
			return err
		}
	}
	for _, e := range req.Educations {
		if strings.TrimSpace(e.School) == "" {
			return ErrProfileEntryInvalid
		}
		if err := checkDateRange(e.StartDate, e.EndDate); err != nil {
			return err
		}
	}
	for _, a := range req.Activities {
		if strings.TrimSpace(a.Title) == "" {
			return ErrProfileEntryInvalid
		}
		if a.Date != "" {
			if _, err := parseProfileDate(a.Date); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkDateRange 结束日期为空表示至今
func checkDateRange(start string, end *string) error {
	from, err := parseProfileDate(start)
	if err != nil {
		return err
	}
	if end == nil || *end == "" {
		return nil
	}
	to, err := parseProfileDate(*end)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return ErrProfileDateOrder
	}
	return nil
}

func parseProfileDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrProfileDateInvalid
}

func publishedOnly[T any](items []T, keep func(T) bool) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func toProfileResponse(p *model.MentorProfile) dto.MentorProfileResponse {
	return dto.MentorProfileResponse{
		ID:                p.ProfileID,
		UserID:            p.UserID,
		Headline:          p.Headline,
		Bio:               p.Bio,
		Company:           p.Company,
		JobTitle:          p.JobTitle,
		YearsOfExperience: p.YearsOfExperience,
		LinkedInURL:       p.LinkedInURL,
		AvatarURL:         p.AvatarURL,
		Skills:            nonNil([]model.SkillEntry(p.Skills)),
		WorkExperiences:   nonNil([]model.WorkExperience(p.WorkExperiences)),
		Educations:        nonNil([]model.Education(p.Educations)),
		Activities:        nonNil([]model.Activity(p.Activities)),
		Version:           p.Version,
		UpdatedAt:         formatTime(p.UpdatedAt),
	}
}
