package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/model"
	"mentor-hub/server/internal/repository"
)

// ── 签到模块业务错误 ──

var (
	ErrCheckInCodeNotFound   = errors.New("签到码无效")
	ErrCheckInCodeInactive   = errors.New("签到码已停用")
	ErrCheckInCodeExpired    = errors.New("签到码不在有效期内")
	ErrCheckInCodeExists     = errors.New("签到码已存在")
	ErrCheckInCodeFormat     = errors.New("签到码须为 6-12 位大写字母或数字")
	ErrCheckInWindowInvalid  = errors.New("签到码有效期格式无效或结束时间早于开始时间")
	ErrNotRegistered         = errors.New("未报名该活动")
	ErrRegistrationCancelled = errors.New("报名已取消，无法签到")
	ErrAlreadyCheckedIn      = errors.New("已签到，无需重复签到")
)

// checkInAlphabet 去掉易混淆的 0/O、1/I
const checkInAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const checkInGenerateAttempts = 5

var checkInCodePattern = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)

// CheckInService 活动签到码与签到业务接口
type CheckInService interface {
	CreateCode(ctx context.Context, adminID, eventID string, req *dto.CreateCheckInCodeRequest) (*dto.CheckInCodeResponse, error)
	ListCodes(ctx context.Context, eventID string) ([]dto.CheckInCodeResponse, error)
	DeactivateCode(ctx context.Context, adminID, codeID string) (*dto.CheckInCodeResponse, error)
	DeleteCode(ctx context.Context, codeID string) error
	CheckIn(ctx context.Context, userID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type checkInService struct {
	repo   *repository.Repository
	cfg    *config.CheckInConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewCheckInService 创建 CheckInService 实例
func NewCheckInService(repo *repository.Repository, cfg *config.CheckInConfig, logger *zap.Logger) CheckInService {
	return &checkInService{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// ────────────────────── CreateCode ──────────────────────

func (s *checkInService) CreateCode(ctx context.Context, adminID, eventID string, req *dto.CreateCheckInCodeRequest) (*dto.CheckInCodeResponse, error) {
	if _, err := s.repo.Event.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	validFrom := s.now()
	if req.ValidFrom != nil {
		t, err := time.Parse(time.RFC3339, *req.ValidFrom)
		if err != nil {
			return nil, ErrCheckInWindowInvalid
		}
		validFrom = t
	}
	validUntil := validFrom.Add(s.cfg.DefaultValidity)
	if req.ValidUntil != nil {
		t, err := time.Parse(time.RFC3339, *req.ValidUntil)
		if err != nil {
			return nil, ErrCheckInWindowInvalid
		}
		validUntil = t
	}
	if !validUntil.After(validFrom) {
		return nil, ErrCheckInWindowInvalid
	}

	var code string
	if req.Code != nil && strings.TrimSpace(*req.Code) != "" {
		code = strings.ToUpper(strings.TrimSpace(*req.Code))
		if !checkInCodePattern.MatchString(code) {
			return nil, ErrCheckInCodeFormat
		}
		taken, err := s.codeTaken(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCheckInCodeExists
		}
	} else {
		var err error
		if code, err = s.generateUniqueCode(ctx); err != nil {
			return nil, err
		}
	}

	c := &model.CheckInCode{
		EventID:    eventID,
		Code:       code,
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
		IsActive:   true,
	}
	c.StampCreate(adminID)

	if err := s.repo.CheckInCode.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCheckInCodeExists
		}
		s.logger.Error("创建签到码失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	resp := toCheckInCodeResponse(c)
	return &resp, nil
}

// ────────────────────── ListCodes ──────────────────────

func (s *checkInService) ListCodes(ctx context.Context, eventID string) ([]dto.CheckInCodeResponse, error) {
	codes, err := s.repo.CheckInCode.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询签到码失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CheckInCodeResponse, 0, len(codes))
	for i := range codes {
		result = append(result, toCheckInCodeResponse(&codes[i]))
	}
	return result, nil
}

// ────────────────────── DeactivateCode ──────────────────────

func (s *checkInService) DeactivateCode(ctx context.Context, adminID, codeID string) (*dto.CheckInCodeResponse, error) {
	c, err := s.getCode(ctx, codeID)
	if err != nil {
		return nil, err
	}

	c.IsActive = false
	c.StampUpdate(adminID)
	if err := s.repo.CheckInCode.Update(ctx, c); err != nil {
		s.logger.Error("停用签到码失败", zap.String("code_id", codeID), zap.Error(err))
		return nil, err
	}

	resp := toCheckInCodeResponse(c)
	return &resp, nil
}

// ────────────────────── DeleteCode ──────────────────────

func (s *checkInService) DeleteCode(ctx context.Context, codeID string) error {
	if _, err := s.getCode(ctx, codeID); err != nil {
		return err
	}
	if err := s.repo.CheckInCode.Delete(ctx, codeID); err != nil {
		s.logger.Error("删除签到码失败", zap.String("code_id", codeID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CheckIn ──────────────────────

// CheckIn 签到码启用且当前处于有效期内，用户已报名且未取消
func (s *checkInService) CheckIn(ctx context.Context, userID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	c, err := s.repo.CheckInCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckInCodeNotFound
		}
		s.logger.Error("查询签到码失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	if !c.IsActive {
		return nil, ErrCheckInCodeInactive
	}
	if !c.ValidAt(now) {
		return nil, ErrCheckInCodeExpired
	}

	event, err := s.repo.Event.GetByID(ctx, c.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("event_id", c.EventID), zap.Error(err))
		return nil, err
	}

	reg, err := s.repo.EventRegistration.GetByEventAndUser(ctx, c.EventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		s.logger.Error("查询报名记录失败", zap.String("event_id", c.EventID), zap.Error(err))
		return nil, err
	}
	switch reg.Status {
	case model.RegistrationCancelled:
		return nil, ErrRegistrationCancelled
	case model.RegistrationAttended:
		return nil, ErrAlreadyCheckedIn
	}

	reg.Status = model.RegistrationAttended
	reg.CheckedInAt = &now
	reg.CheckInCodeID = &c.CodeID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.EventRegistration.Update(ctx, reg); err != nil {
			return err
		}
		return tx.CheckInCode.IncrementUsed(ctx, c.CodeID)
	})
	if err != nil {
		s.logger.Error("签到失败", zap.String("event_id", c.EventID), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &dto.CheckInResponse{
		EventID:        event.EventID,
		EventTitle:     event.Title,
		RegistrationID: reg.RegistrationID,
		CheckedInAt:    formatTime(now),
	}, nil
}

// ────────────────────── SweepExpired ──────────────────────

// SweepExpired 停用已过期的签到码（定时任务调用）
func (s *checkInService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.CheckInCode.DeactivateExpired(ctx, now)
	if err != nil {
		s.logger.Error("停用过期签到码失败", zap.Error(err))
		return 0, err
	}
	return n, nil
}

// ── 内部方法 ──

func (s *checkInService) getCode(ctx context.Context, codeID string) (*model.CheckInCode, error) {
	c, err := s.repo.CheckInCode.GetByID(ctx, codeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckInCodeNotFound
		}
		s.logger.Error("查询签到码失败", zap.String("code_id", codeID), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (s *checkInService) codeTaken(ctx context.Context, code string) (bool, error) {
	_, err := s.repo.CheckInCode.GetByCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	s.logger.Error("查询签到码失败", zap.Error(err))
	return false, err
}

func (s *checkInService) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < checkInGenerateAttempts; i++ {
		code, err := GenerateCheckInCode(s.cfg.CodeLength)
		if err != nil {
			return "", err
		}
		taken, err := s.codeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCheckInCodeExists
}

// GenerateCheckInCode 生成指定长度的随机签到码（大写字母与数字）
func GenerateCheckInCode(length int) (string, error) {
	if length < 6 {
		length = 6
	} else if length > 12 {
		length = 12
	}
	base := big.NewInt(int64(len(checkInAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b[i] = checkInAlphabet[n.Int64()]
	}
	return string(b), nil
}

func toCheckInCodeResponse(c *model.CheckInCode) dto.CheckInCodeResponse {
	return dto.CheckInCodeResponse{
		ID:         c.CodeID,
		EventID:    c.EventID,
		Code:       c.Code,
		ValidFrom:  formatTime(c.ValidFrom),
		ValidUntil: formatTime(c.ValidUntil),
		IsActive:   c.IsActive,
		UsedCount:  c.UsedCount,
		CreatedAt:  formatTime(c.CreatedAt),
	}
}
