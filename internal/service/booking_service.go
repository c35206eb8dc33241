package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/model"
	"mentor-hub/server/internal/repository"
)

// ── 预约模块业务错误 ──

var (
	ErrBookingNotFound         = errors.New("预约不存在")
	ErrBookingInvalidStatus    = errors.New("无效的预约状态")
	ErrBookingScheduleRequired = errors.New("确认预约时必须填写预约时间")
	ErrBookingScheduleInvalid  = errors.New("预约时间格式无效")
	ErrBookingSchedulePast     = errors.New("预约时间不能早于当前时间")
	ErrBookingCompleted        = errors.New("已完成的预约不可再修改状态")
	ErrBookingNotesTooLong     = errors.New("备注不能超过 2000 字")
)

const (
	bookingNotesMaxLen   = 2000
	bookingSessionLength = time.Hour
)

// BookingService 导师预约业务接口；每次修改返回最新记录，由客户端重新拉取列表
type BookingService interface {
	List(ctx context.Context, mentorID string, query *dto.BookingListQuery) ([]dto.BookingResponse, error)
	Get(ctx context.Context, mentorID, bookingID string) (*dto.BookingResponse, error)
	UpdateStatus(ctx context.Context, mentorID, bookingID string, req *dto.UpdateBookingStatusRequest) (*dto.BookingResponse, error)
	UpdateNotes(ctx context.Context, mentorID, bookingID string, req *dto.UpdateBookingNotesRequest) (*dto.BookingResponse, error)
	CalendarFeed(ctx context.Context, mentorID string) ([]byte, error)
}

type bookingService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── List ──────────────────────

func (s *bookingService) List(ctx context.Context, mentorID string, query *dto.BookingListQuery) ([]dto.BookingResponse, error) {
	bookings, err := s.repo.Booking.ListByMentor(ctx, mentorID)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.String("mentor_id", mentorID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		if !MatchBooking(&bookings[i], query.Search, query.Status) {
			continue
		}
		result = append(result, toBookingResponse(&bookings[i]))
	}
	return result, nil
}

// MatchBooking 搜索词对学员姓名/邮箱做不区分大小写的子串匹配，状态精确匹配；空条件不过滤
func MatchBooking(b *model.Booking, search, status string) bool {
	if status != "" && b.Status != status {
		return false
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.LearnerName), search) ||
		strings.Contains(strings.ToLower(b.LearnerEmail), search)
}

// ────────────────────── Get ──────────────────────

func (s *bookingService) Get(ctx context.Context, mentorID, bookingID string) (*dto.BookingResponse, error) {
	booking, err := s.getOwned(ctx, mentorID, bookingID)
	if err != nil {
		return nil, err
	}
	resp := toBookingResponse(booking)
	return &resp, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *bookingService) UpdateStatus(ctx context.Context, mentorID, bookingID string, req *dto.UpdateBookingStatusRequest) (*dto.BookingResponse, error) {
	if !model.IsValidBookingStatus(req.Status) {
		return nil, ErrBookingInvalidStatus
	}

	booking, err := s.getOwned(ctx, mentorID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingCompleted && req.Status != model.BookingCompleted {
		return nil, ErrBookingCompleted
	}

	// 预约时间只在确认时生效；全部校验通过后才修改记录
	scheduled := booking.ScheduledDate
	if req.Status == model.BookingConfirmed {
		if req.ScheduledDate != nil && strings.TrimSpace(*req.ScheduledDate) != "" {
			t, err := time.Parse(time.RFC3339, *req.ScheduledDate)
			if err != nil {
				return nil, ErrBookingScheduleInvalid
			}
			if t.Before(s.now()) {
				return nil, ErrBookingSchedulePast
			}
			scheduled = &t
		} else if scheduled == nil {
			return nil, ErrBookingScheduleRequired
		}
	}

	booking.Status = req.Status
	booking.ScheduledDate = scheduled
	booking.StampUpdate(mentorID)

	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		s.logger.Error("更新预约状态失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	resp := toBookingResponse(booking)
	return &resp, nil
}

// ────────────────────── UpdateNotes ──────────────────────

func (s *bookingService) UpdateNotes(ctx context.Context, mentorID, bookingID string, req *dto.UpdateBookingNotesRequest) (*dto.BookingResponse, error) {
	if len([]rune(req.MentorNotes)) > bookingNotesMaxLen {
		return nil, ErrBookingNotesTooLong
	}

	booking, err := s.getOwned(ctx, mentorID, bookingID)
	if err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(req.MentorNotes)
	if notes == "" {
		booking.MentorNotes = nil
	} else {
		booking.MentorNotes = &notes
	}
	booking.StampUpdate(mentorID)

	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		s.logger.Error("更新预约备注失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	resp := toBookingResponse(booking)
	return &resp, nil
}

// ────────────────────── CalendarFeed ──────────────────────

// CalendarFeed 导出已确认且已排期的预约为 iCalendar
func (s *bookingService) CalendarFeed(ctx context.Context, mentorID string) ([]byte, error) {
	bookings, err := s.repo.Booking.ListByMentor(ctx, mentorID)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.String("mentor_id", mentorID), zap.Error(err))
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//mentor-hub//bookings//CN")
	cal.SetName("导师预约")

	for i := range bookings {
		b := &bookings[i]
		if b.Status != model.BookingConfirmed || b.ScheduledDate == nil {
			continue
		}
		ev := cal.AddEvent(b.BookingID + "@mentor-hub")
		ev.SetCreatedTime(b.CreatedAt)
		ev.SetDtStampTime(b.UpdatedAt)
		ev.SetStartAt(*b.ScheduledDate)
		ev.SetEndAt(b.ScheduledDate.Add(bookingSessionLength))
		ev.SetSummary(fmt.Sprintf("%s · %s", b.SessionType, b.LearnerName))
		if b.Notes != nil {
			ev.SetDescription(*b.Notes)
		}
		ev.AddAttendee("mailto:"+b.LearnerEmail, ics.WithCN(b.LearnerName))
	}

	return []byte(cal.Serialize()), nil
}

// ── 内部方法 ──

// getOwned 非本人预约一律视为不存在
func (s *bookingService) getOwned(ctx context.Context, mentorID, bookingID string) (*model.Booking, error) {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	if booking.MentorID != mentorID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func toBookingResponse(b *model.Booking) dto.BookingResponse {
	return dto.BookingResponse{
		ID:            b.BookingID,
		MentorID:      b.MentorID,
		LearnerID:     b.LearnerID,
		LearnerName:   b.LearnerName,
		LearnerEmail:  b.LearnerEmail,
		Status:        b.Status,
		SessionType:   b.SessionType,
		ScheduledDate: formatTimePtr(b.ScheduledDate),
		Notes:         b.Notes,
		MentorNotes:   b.MentorNotes,
		CreatedAt:     formatTime(b.CreatedAt),
		UpdatedAt:     formatTime(b.UpdatedAt),
	}
}
