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

// ── 活动模块业务错误 ──

var (
	ErrEventNotFound        = errors.New("活动不存在")
	ErrEventTimeInvalid     = errors.New("活动时间格式无效或结束时间早于开始时间")
	ErrEventCapacityInvalid = errors.New("活动人数上限不能为负数")
	ErrEventNotOpen         = errors.New("活动未开放报名")
	ErrEventFull            = errors.New("活动名额已满")
	ErrRegistrationNotFound = errors.New("报名记录不存在")
	ErrRegistrationInvalid  = errors.New("无效的报名状态")
	ErrAlreadyRegistered    = errors.New("已报名该活动")
	ErrReviewNotFound       = errors.New("评价不存在")
	ErrReviewNotAttended    = errors.New("仅已签到的参与者可以评价")
	ErrReviewExists         = errors.New("已评价过该活动")
	ErrReviewRatingInvalid  = errors.New("评分需在 1-5 之间")
)

// EventService 活动管理业务接口；修改类操作返回最新记录，由客户端重新拉取列表
type EventService interface {
	// 管理端：活动
	List(ctx context.Context, query *dto.EventListQuery) ([]dto.EventResponse, int64, error)
	Get(ctx context.Context, eventID string) (*dto.EventDetailResponse, error)
	Create(ctx context.Context, adminID string, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	Update(ctx context.Context, adminID, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	Delete(ctx context.Context, adminID, eventID string) error
	UploadThumbnail(ctx context.Context, adminID, eventID, filename string, data []byte) (*dto.EventResponse, error)
	Calendar(ctx context.Context, eventID string) ([]byte, string, error)

	// 管理端：报名与评价
	ListParticipants(ctx context.Context, eventID string, query *dto.ParticipantListQuery) ([]dto.ParticipantResponse, int64, error)
	UpdateRegistrationStatus(ctx context.Context, registrationID string, req *dto.UpdateRegistrationStatusRequest) (*dto.ParticipantResponse, error)
	ListReviews(ctx context.Context, eventID string, page *dto.PaginationRequest) ([]dto.ReviewResponse, int64, error)
	DeleteReview(ctx context.Context, reviewID string) error

	// 用户端
	Register(ctx context.Context, userID, eventID string, req *dto.RegisterEventRequest) (*dto.ParticipantResponse, error)
	CancelRegistration(ctx context.Context, userID, eventID string) error
	SubmitReview(ctx context.Context, userID, eventID string, req *dto.SubmitReviewRequest) (*dto.ReviewResponse, error)
}

type eventService struct {
	repo   *repository.Repository
	media  MediaService
	logger *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(repo *repository.Repository, media MediaService, logger *zap.Logger) EventService {
	return &eventService{repo: repo, media: media, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *eventService) List(ctx context.Context, query *dto.EventListQuery) ([]dto.EventResponse, int64, error) {
	events, total, err := s.repo.Event.List(ctx, repository.EventFilter{
		Keyword:   query.Keyword,
		Status:    query.Status,
		EventType: query.EventType,
	}, query.GetOffset(), query.GetPageSize())
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(events))
	for i := range events {
		ids = append(ids, events[i].EventID)
	}
	counts, err := s.repo.EventRegistration.CountActive(ctx, ids)
	if err != nil {
		s.logger.Error("统计报名人数失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, toEventResponse(&events[i], counts[events[i].EventID]))
	}
	return result, total, nil
}

// ────────────────────── Get ──────────────────────

func (s *eventService) Get(ctx context.Context, eventID string) (*dto.EventDetailResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.EventRegistration.CountActive(ctx, []string{eventID})
	if err != nil {
		s.logger.Error("统计报名人数失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	_, reviewCount, err := s.repo.EventReview.ListByEvent(ctx, eventID, 0, 1)
	if err != nil {
		s.logger.Error("统计评价失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	avg, err := s.repo.EventReview.AverageRating(ctx, eventID)
	if err != nil {
		s.logger.Error("统计平均评分失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	return &dto.EventDetailResponse{
		EventResponse: toEventResponse(event, counts[eventID]),
		ReviewCount:   reviewCount,
		AverageRating: avg,
	}, nil
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, adminID string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	startAt, endAt, err := parseEventWindow(req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}
	if req.Capacity < 0 {
		return nil, ErrEventCapacityInvalid
	}

	status := req.Status
	if status == "" {
		status = model.EventDraft
	}

	event := &model.Event{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		EventType:    req.EventType,
		Location:     req.Location,
		StartAt:      startAt,
		EndAt:        endAt,
		Capacity:     req.Capacity,
		Status:       status,
		ThumbnailURL: req.ThumbnailURL,
	}
	event.StampCreate(adminID)

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建活动失败", zap.Error(err))
		return nil, err
	}

	resp := toEventResponse(event, 0)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *eventService) Update(ctx context.Context, adminID, eventID string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	startAt, endAt := event.StartAt, event.EndAt
	if req.StartAt != nil {
		if startAt, err = time.Parse(time.RFC3339, *req.StartAt); err != nil {
			return nil, ErrEventTimeInvalid
		}
	}
	if req.EndAt != nil {
		if endAt, err = time.Parse(time.RFC3339, *req.EndAt); err != nil {
			return nil, ErrEventTimeInvalid
		}
	}
	if !endAt.After(startAt) {
		return nil, ErrEventTimeInvalid
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		return nil, ErrEventCapacityInvalid
	}

	event.StartAt, event.EndAt = startAt, endAt
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if req.EventType != nil {
		event.EventType = *req.EventType
	}
	if req.Location != nil {
		event.Location = req.Location
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if req.ThumbnailURL != nil {
		event.ThumbnailURL = req.ThumbnailURL
	}
	event.StampUpdate(adminID)

	return s.save(ctx, event)
}

// ────────────────────── Delete ──────────────────────

func (s *eventService) Delete(ctx context.Context, adminID, eventID string) error {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return err
	}
	if err := s.repo.Event.Delete(ctx, eventID, adminID); err != nil {
		s.logger.Error("删除活动失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── UploadThumbnail ──────────────────────

func (s *eventService) UploadThumbnail(ctx context.Context, adminID, eventID, filename string, data []byte) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.media.UploadImage(ctx, FolderEventThumbnails, filename, data)
	if err != nil {
		return nil, err
	}

	event.ThumbnailURL = &uploaded.URL
	event.StampUpdate(adminID)
	return s.save(ctx, event)
}

// ────────────────────── Calendar ──────────────────────

// Calendar 导出单个活动为 iCalendar，返回内容与建议文件名
func (s *eventService) Calendar(ctx context.Context, eventID string) ([]byte, string, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//mentor-hub//events//CN")

	ev := cal.AddEvent(event.EventID + "@mentor-hub")
	ev.SetCreatedTime(event.CreatedAt)
	ev.SetDtStampTime(event.UpdatedAt)
	ev.SetStartAt(event.StartAt)
	ev.SetEndAt(event.EndAt)
	ev.SetSummary(event.Title)
	if event.Description != nil {
		ev.SetDescription(*event.Description)
	}
	if event.Location != nil {
		ev.SetLocation(*event.Location)
	}

	return []byte(cal.Serialize()), eventFileBase(event) + ".ics", nil
}

// ────────────────────── ListParticipants ──────────────────────

func (s *eventService) ListParticipants(ctx context.Context, eventID string, query *dto.ParticipantListQuery) ([]dto.ParticipantResponse, int64, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, 0, err
	}

	regs, total, err := s.repo.EventRegistration.ListByEvent(ctx, eventID, repository.RegistrationFilter{
		Status:  query.Status,
		Keyword: query.Keyword,
	}, query.GetOffset(), query.GetPageSize())
	if err != nil {
		s.logger.Error("查询报名列表失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ParticipantResponse, 0, len(regs))
	for i := range regs {
		result = append(result, toParticipantResponse(&regs[i]))
	}
	return result, total, nil
}

// ────────────────────── UpdateRegistrationStatus ──────────────────────

func (s *eventService) UpdateRegistrationStatus(ctx context.Context, registrationID string, req *dto.UpdateRegistrationStatusRequest) (*dto.ParticipantResponse, error) {
	if !model.IsValidRegistrationStatus(req.Status) {
		return nil, ErrRegistrationInvalid
	}

	reg, err := s.repo.EventRegistration.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询报名记录失败", zap.String("registration_id", registrationID), zap.Error(err))
		return nil, err
	}

	reg.Status = req.Status
	if req.Status == model.RegistrationAttended {
		if reg.CheckedInAt == nil {
			now := time.Now()
			reg.CheckedInAt = &now
		}
	} else {
		reg.CheckedInAt = nil
		reg.CheckInCodeID = nil
	}

	if err := s.repo.EventRegistration.Update(ctx, reg); err != nil {
		s.logger.Error("更新报名状态失败", zap.String("registration_id", registrationID), zap.Error(err))
		return nil, err
	}

	resp := toParticipantResponse(reg)
	return &resp, nil
}

// ────────────────────── ListReviews ──────────────────────

func (s *eventService) ListReviews(ctx context.Context, eventID string, page *dto.PaginationRequest) ([]dto.ReviewResponse, int64, error) {
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, 0, err
	}

	reviews, total, err := s.repo.EventReview.ListByEvent(ctx, eventID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询评价列表失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		result = append(result, toReviewResponse(&reviews[i]))
	}
	return result, total, nil
}

// ────────────────────── DeleteReview ──────────────────────

func (s *eventService) DeleteReview(ctx context.Context, reviewID string) error {
	if _, err := s.repo.EventReview.GetByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		s.logger.Error("查询评价失败", zap.String("review_id", reviewID), zap.Error(err))
		return err
	}
	if err := s.repo.EventReview.Delete(ctx, reviewID); err != nil {
		s.logger.Error("删除评价失败", zap.String("review_id", reviewID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Register ──────────────────────

// Register 报名开放中的活动；capacity 为 0 表示不限人数；已取消的报名可重新激活
func (s *eventService) Register(ctx context.Context, userID, eventID string, req *dto.RegisterEventRequest) (*dto.ParticipantResponse, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventOpen {
		return nil, ErrEventNotOpen
	}

	existing, err := s.repo.EventRegistration.GetByEventAndUser(ctx, eventID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询报名记录失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	if existing != nil && existing.Status != model.RegistrationCancelled {
		return nil, ErrAlreadyRegistered
	}

	if event.Capacity > 0 {
		counts, err := s.repo.EventRegistration.CountActive(ctx, []string{eventID})
		if err != nil {
			s.logger.Error("统计报名人数失败", zap.String("event_id", eventID), zap.Error(err))
			return nil, err
		}
		if counts[eventID] >= int64(event.Capacity) {
			return nil, ErrEventFull
		}
	}

	if existing != nil {
		existing.Status = model.RegistrationRegistered
		existing.Motivation = req.Motivation
		existing.CheckedInAt = nil
		existing.CheckInCodeID = nil
		if err := s.repo.EventRegistration.Update(ctx, existing); err != nil {
			s.logger.Error("重新报名失败", zap.String("event_id", eventID), zap.Error(err))
			return nil, err
		}
		resp := toParticipantResponse(existing)
		return &resp, nil
	}

	reg := &model.EventRegistration{
		EventID:      eventID,
		UserID:       userID,
		Status:       model.RegistrationRegistered,
		Motivation:   req.Motivation,
		RegisteredAt: time.Now(),
	}
	if err := s.repo.EventRegistration.Create(ctx, reg); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRegistered
		}
		s.logger.Error("报名失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	resp := toParticipantResponse(reg)
	return &resp, nil
}

// ────────────────────── CancelRegistration ──────────────────────

func (s *eventService) CancelRegistration(ctx context.Context, userID, eventID string) error {
	reg, err := s.repo.EventRegistration.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationNotFound
		}
		s.logger.Error("查询报名记录失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}
	if reg.Status == model.RegistrationCancelled {
		return nil
	}

	reg.Status = model.RegistrationCancelled
	reg.CheckedInAt = nil
	reg.CheckInCodeID = nil
	if err := s.repo.EventRegistration.Update(ctx, reg); err != nil {
		s.logger.Error("取消报名失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── SubmitReview ──────────────────────

func (s *eventService) SubmitReview(ctx context.Context, userID, eventID string, req *dto.SubmitReviewRequest) (*dto.ReviewResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrReviewRatingInvalid
	}
	if _, err := s.getEvent(ctx, eventID); err != nil {
		return nil, err
	}

	reg, err := s.repo.EventRegistration.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotAttended
		}
		s.logger.Error("查询报名记录失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	if reg.Status != model.RegistrationAttended {
		return nil, ErrReviewNotAttended
	}

	if _, err := s.repo.EventReview.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return nil, ErrReviewExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询评价失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	review := &model.EventReview{
		EventID:   eventID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	if err := s.repo.EventReview.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReviewExists
		}
		s.logger.Error("提交评价失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	resp := toReviewResponse(review)
	return &resp, nil
}

// ── 内部方法 ──

func (s *eventService) getEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	return event, nil
}

func (s *eventService) save(ctx context.Context, event *model.Event) (*dto.EventResponse, error) {
	if err := s.repo.Event.Update(ctx, event); err != nil {
		s.logger.Error("更新活动失败", zap.String("event_id", event.EventID), zap.Error(err))
		return nil, err
	}
	counts, err := s.repo.EventRegistration.CountActive(ctx, []string{event.EventID})
	if err != nil {
		s.logger.Error("统计报名人数失败", zap.String("event_id", event.EventID), zap.Error(err))
		return nil, err
	}
	resp := toEventResponse(event, counts[event.EventID])
	return &resp, nil
}

func parseEventWindow(start, end string) (time.Time, time.Time, error) {
	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, ErrEventTimeInvalid
	}
	endAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, ErrEventTimeInvalid
	}
	if !endAt.After(startAt) {
		return time.Time{}, time.Time{}, ErrEventTimeInvalid
	}
	return startAt, endAt, nil
}

func toEventResponse(e *model.Event, participants int64) dto.EventResponse {
	return dto.EventResponse{
		ID:               e.EventID,
		Title:            e.Title,
		Description:      e.Description,
		EventType:        e.EventType,
		Location:         e.Location,
		StartAt:          formatTime(e.StartAt),
		EndAt:            formatTime(e.EndAt),
		Capacity:         e.Capacity,
		Status:           e.Status,
		ThumbnailURL:     e.ThumbnailURL,
		ParticipantCount: participants,
		CreatedAt:        formatTime(e.CreatedAt),
		UpdatedAt:        formatTime(e.UpdatedAt),
	}
}

func toParticipantResponse(r *model.EventRegistration) dto.ParticipantResponse {
	resp := dto.ParticipantResponse{
		RegistrationID: r.RegistrationID,
		EventID:        r.EventID,
		UserID:         r.UserID,
		Status:         r.Status,
		Motivation:     r.Motivation,
		RegisteredAt:   formatTime(r.RegisteredAt),
		CheckedInAt:    formatTimePtr(r.CheckedInAt),
	}
	if r.User != nil {
		resp.Name = r.User.Name
		resp.Email = r.User.Email
		resp.Phone = r.User.Phone
	}
	return resp
}

func toReviewResponse(r *model.EventReview) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID:        r.ReviewID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: formatTime(r.CreatedAt),
	}
	if r.User != nil {
		resp.UserName = r.User.Name
	}
	return resp
}

// eventFileBase 导出文件名前缀
func eventFileBase(e *model.Event) string {
	return fmt.Sprintf("%s_%s", strings.TrimSpace(e.Title), e.StartAt.Format("20060102"))
}
