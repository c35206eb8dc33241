package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/model"
	"mentor-hub/server/internal/repository"
	"mentor-hub/server/pkg/validation"
)

// MinMentorBioLength 导师申请简介最少字符数（按 rune 计）
const MinMentorBioLength = 100

// 当前用户的申请状态
const (
	MentorStatusNone          = "none"
	MentorStatusAlreadyMentor = "already_mentor"
)

// ── 导师申请业务错误 ──

var (
	ErrPolicyNotAgreed           = errors.New("请先阅读并同意导师协议")
	ErrFullNameRequired          = errors.New("请填写真实姓名")
	ErrRegistrationEmailInvalid  = errors.New("邮箱格式不正确")
	ErrRegistrationPhoneInvalid  = errors.New("手机号格式不正确")
	ErrBioTooShort               = errors.New("个人简介至少需要 100 个字符")
	ErrAlreadyMentor             = errors.New("您已经是导师")
	ErrRegistrationPending       = errors.New("已有待审核的导师申请")
	ErrMentorRegNotFound         = errors.New("导师申请不存在")
	ErrMentorRegAlreadyProcessed = errors.New("该申请已审核")
)

// MentorRegistrationService 导师申请业务接口
type MentorRegistrationService interface {
	Status(ctx context.Context, userID string) (*dto.MentorRegistrationStatusResponse, error)
	Register(ctx context.Context, userID string, req *dto.MentorRegisterRequest) (*dto.MentorRegistrationResponse, error)
	List(ctx context.Context, query *dto.MentorRegistrationListQuery) ([]dto.MentorRegistrationResponse, int64, error)
	Review(ctx context.Context, adminID, registrationID string, req *dto.ReviewMentorRegistrationRequest) (*dto.MentorRegistrationResponse, error)
}

type mentorRegistrationService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewMentorRegistrationService 创建 MentorRegistrationService 实例
func NewMentorRegistrationService(repo *repository.Repository, logger *zap.Logger) MentorRegistrationService {
	return &mentorRegistrationService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Status ──────────────────────

func (s *mentorRegistrationService) Status(ctx context.Context, userID string) (*dto.MentorRegistrationStatusResponse, error) {
	hasProfile, err := s.hasProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasProfile {
		return &dto.MentorRegistrationStatusResponse{Status: MentorStatusAlreadyMentor}, nil
	}

	reg, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return &dto.MentorRegistrationStatusResponse{Status: MentorStatusNone}, nil
	}

	resp := toMentorRegistrationResponse(reg)
	return &dto.MentorRegistrationStatusResponse{Status: reg.Status, Registration: &resp}, nil
}

// ────────────────────── Register ──────────────────────

func (s *mentorRegistrationService) Register(ctx context.Context, userID string, req *dto.MentorRegisterRequest) (*dto.MentorRegistrationResponse, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	bio := strings.TrimSpace(req.Bio)

	// 1. 表单校验，按页面顺序逐条给出提示
	if !req.AgreedPolicy {
		return nil, ErrPolicyNotAgreed
	}
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	if !validation.IsEmail(email) {
		return nil, ErrRegistrationEmailInvalid
	}
	if !validation.IsPhone(phone) {
		return nil, ErrRegistrationPhoneInvalid
	}
	if utf8.RuneCountInString(bio) < MinMentorBioLength {
		return nil, ErrBioTooShort
	}

	// 2. 导师身份与已有申请互斥
	hasProfile, err := s.hasProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasProfile {
		return nil, ErrAlreadyMentor
	}
	prev, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		switch prev.Status {
		case model.MentorRegPending:
			return nil, ErrRegistrationPending
		case model.MentorRegApproved:
			return nil, ErrAlreadyMentor
		}
	}

	reg := &model.MentorRegistration{
		UserID:         userID,
		FullName:       fullName,
		Email:          email,
		Phone:          phone,
		Bio:            bio,
		Expertise:      trimPtr(req.Expertise),
		AgreedPolicyAt: s.now(),
		Status:         model.MentorRegPending,
	}
	if err := s.repo.MentorRegistration.Create(ctx, reg); err != nil {
		s.logger.Error("创建导师申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := toMentorRegistrationResponse(reg)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *mentorRegistrationService) List(ctx context.Context, query *dto.MentorRegistrationListQuery) ([]dto.MentorRegistrationResponse, int64, error) {
	regs, total, err := s.repo.MentorRegistration.List(ctx, query.Status, query.GetOffset(), query.GetPageSize())
	if err != nil {
		s.logger.Error("查询导师申请列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.MentorRegistrationResponse, 0, len(regs))
	for i := range regs {
		list = append(list, toMentorRegistrationResponse(&regs[i]))
	}
	return list, total, nil
}

// ────────────────────── Review ──────────────────────

// Review 通过时在同一事务中创建导师资料并将用户角色提升为 mentor
func (s *mentorRegistrationService) Review(ctx context.Context, adminID, registrationID string, req *dto.ReviewMentorRegistrationRequest) (*dto.MentorRegistrationResponse, error) {
	reg, err := s.repo.MentorRegistration.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorRegNotFound
		}
		s.logger.Error("查询导师申请失败", zap.String("registration_id", registrationID), zap.Error(err))
		return nil, err
	}
	if reg.Status != model.MentorRegPending {
		return nil, ErrMentorRegAlreadyProcessed
	}

	now := s.now()
	reg.AdminNotes = trimPtr(req.AdminNotes)
	reg.ReviewedAt = &now
	reg.ReviewedBy = &adminID
	if req.Decision == "approve" {
		reg.Status = model.MentorRegApproved
	} else {
		reg.Status = model.MentorRegRejected
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.MentorRegistration.Update(ctx, reg); err != nil {
			return err
		}
		if reg.Status != model.MentorRegApproved {
			return nil
		}

		if _, err := tx.MentorProfile.GetByUserID(ctx, reg.UserID); err == nil {
			return ErrAlreadyMentor
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		bio := reg.Bio
		profile := &model.MentorProfile{
			UserID:          reg.UserID,
			Headline:        reg.Expertise,
			Bio:             &bio,
			Skills:          []model.SkillEntry{},
			WorkExperiences: []model.WorkExperience{},
			Educations:      []model.Education{},
			Activities:      []model.Activity{},
		}
		profile.Version = 1
		profile.StampCreate(adminID)
		if err := tx.MentorProfile.Create(ctx, profile); err != nil {
			return err
		}
		return tx.User.UpdateRole(ctx, reg.UserID, model.RoleMentor, adminID)
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyMentor) {
			s.logger.Error("审核导师申请失败", zap.String("registration_id", registrationID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("导师申请已审核",
		zap.String("registration_id", registrationID),
		zap.String("status", reg.Status),
		zap.String("admin_id", adminID),
	)
	resp := toMentorRegistrationResponse(reg)
	return &resp, nil
}

// ── 辅助函数 ──

func (s *mentorRegistrationService) hasProfile(ctx context.Context, userID string) (bool, error) {
	_, err := s.repo.MentorProfile.GetByUserID(ctx, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	s.logger.Error("查询导师资料失败", zap.String("user_id", userID), zap.Error(err))
	return false, err
}

func (s *mentorRegistrationService) latest(ctx context.Context, userID string) (*model.MentorRegistration, error) {
	reg, err := s.repo.MentorRegistration.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询导师申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return reg, nil
}

func toMentorRegistrationResponse(r *model.MentorRegistration) dto.MentorRegistrationResponse {
	return dto.MentorRegistrationResponse{
		ID:         r.RegistrationID,
		UserID:     r.UserID,
		FullName:   r.FullName,
		Email:      r.Email,
		Phone:      r.Phone,
		Bio:        r.Bio,
		Expertise:  r.Expertise,
		Status:     r.Status,
		AdminNotes: r.AdminNotes,
		CreatedAt:  formatTime(r.CreatedAt),
		ReviewedAt: formatTimePtr(r.ReviewedAt),
	}
}
