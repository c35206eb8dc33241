package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"mentor-hub/server/internal/model"
)

// EventFilter 活动列表查询条件
type EventFilter struct {
	Keyword   string
	Status    string
	EventType string
}

// RegistrationFilter 报名列表查询条件，Keyword 匹配报名人姓名或邮箱
type RegistrationFilter struct {
	Status  string
	Keyword string
}

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, filter EventFilter, offset, limit int) ([]model.Event, int64, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id, deletedBy string) error
}

// EventRegistrationRepository 活动报名数据访问接口
type EventRegistrationRepository interface {
	Create(ctx context.Context, reg *model.EventRegistration) error
	GetByID(ctx context.Context, id string) (*model.EventRegistration, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*model.EventRegistration, error)
	// ListByEvent limit <= 0 时返回全部
	ListByEvent(ctx context.Context, eventID string, filter RegistrationFilter, offset, limit int) ([]model.EventRegistration, int64, error)
	CountActive(ctx context.Context, eventIDs []string) (map[string]int64, error)
	Update(ctx context.Context, reg *model.EventRegistration) error
}

// CheckInCodeRepository 签到码数据访问接口
type CheckInCodeRepository interface {
	Create(ctx context.Context, code *model.CheckInCode) error
	GetByID(ctx context.Context, id string) (*model.CheckInCode, error)
	GetByCode(ctx context.Context, code string) (*model.CheckInCode, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.CheckInCode, error)
	Update(ctx context.Context, code *model.CheckInCode) error
	IncrementUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// EventReviewRepository 活动评价数据访问接口
type EventReviewRepository interface {
	Create(ctx context.Context, review *model.EventReview) error
	GetByID(ctx context.Context, id string) (*model.EventReview, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*model.EventReview, error)
	// ListByEvent limit <= 0 时返回全部
	ListByEvent(ctx context.Context, eventID string, offset, limit int) ([]model.EventReview, int64, error)
	AverageRating(ctx context.Context, eventID string) (float64, error)
	Delete(ctx context.Context, id string) error
}

// ── Event Repository 实现 ──

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context, filter EventFilter, offset, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.EventType != "" {
		db = db.Where("event_type = ?", filter.EventType)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		db = db.Where("title ILIKE ? OR location ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("start_at DESC").
		Offset(offset).Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ?", event.EventID).
		Updates(map[string]interface{}{
			"title":         event.Title,
			"description":   event.Description,
			"event_type":    event.EventType,
			"location":      event.Location,
			"start_at":      event.StartAt,
			"end_at":        event.EndAt,
			"capacity":      event.Capacity,
			"status":        event.Status,
			"thumbnail_url": event.ThumbnailURL,
			"updated_by":    event.UpdatedBy,
			"updated_at":    gorm.Expr("NOW()"),
		}).Error
}

func (r *eventRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── EventRegistration Repository 实现 ──

type eventRegistrationRepo struct {
	db *gorm.DB
}

// NewEventRegistrationRepo 创建 EventRegistrationRepository 实例
func NewEventRegistrationRepo(db *gorm.DB) EventRegistrationRepository {
	return &eventRegistrationRepo{db: db}
}

func (r *eventRegistrationRepo) Create(ctx context.Context, reg *model.EventRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *eventRegistrationRepo) GetByID(ctx context.Context, id string) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("registration_id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *eventRegistrationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *eventRegistrationRepo) ListByEvent(ctx context.Context, eventID string, filter RegistrationFilter, offset, limit int) ([]model.EventRegistration, int64, error) {
	var regs []model.EventRegistration
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.EventRegistration{}).
		Joins("JOIN users ON users.user_id = event_registrations.user_id").
		Where("event_registrations.event_id = ?", eventID)
	if filter.Status != "" {
		db = db.Where("event_registrations.status = ?", filter.Status)
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + kw + "%"
		db = db.Where("users.name ILIKE ? OR users.email ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("User").Order("event_registrations.registered_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&regs).Error; err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

// CountActive 统计未取消的报名数
func (r *eventRegistrationRepo) CountActive(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		EventID string
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.EventRegistration{}).
		Select("event_id, COUNT(*) AS count").
		Where("event_id IN ? AND status <> ?", eventIDs, model.RegistrationCancelled).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.EventID] = row.Count
	}
	return result, nil
}

func (r *eventRegistrationRepo) Update(ctx context.Context, reg *model.EventRegistration) error {
	return r.db.WithContext(ctx).
		Model(&model.EventRegistration{}).
		Where("registration_id = ?", reg.RegistrationID).
		Updates(map[string]interface{}{
			"status":           reg.Status,
			"checked_in_at":    reg.CheckedInAt,
			"check_in_code_id": reg.CheckInCodeID,
			"updated_at":       gorm.Expr("NOW()"),
		}).Error
}

// ── CheckInCode Repository 实现 ──

type checkInCodeRepo struct {
	db *gorm.DB
}

// NewCheckInCodeRepo 创建 CheckInCodeRepository 实例
func NewCheckInCodeRepo(db *gorm.DB) CheckInCodeRepository {
	return &checkInCodeRepo{db: db}
}

func (r *checkInCodeRepo) Create(ctx context.Context, code *model.CheckInCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *checkInCodeRepo) GetByID(ctx context.Context, id string) (*model.CheckInCode, error) {
	var code model.CheckInCode
	err := r.db.WithContext(ctx).
		Where("code_id = ?", id).
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *checkInCodeRepo) GetByCode(ctx context.Context, code string) (*model.CheckInCode, error) {
	var c model.CheckInCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checkInCodeRepo) ListByEvent(ctx context.Context, eventID string) ([]model.CheckInCode, error) {
	var codes []model.CheckInCode
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("valid_from DESC").
		Find(&codes).Error
	return codes, err
}

func (r *checkInCodeRepo) Update(ctx context.Context, code *model.CheckInCode) error {
	return r.db.WithContext(ctx).
		Model(&model.CheckInCode{}).
		Where("code_id = ?", code.CodeID).
		Updates(map[string]interface{}{
			"valid_from":  code.ValidFrom,
			"valid_until": code.ValidUntil,
			"is_active":   code.IsActive,
			"updated_by":  code.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}

func (r *checkInCodeRepo) IncrementUsed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.CheckInCode{}).
		Where("code_id = ?", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}

func (r *checkInCodeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("code_id = ?", id).
		Delete(&model.CheckInCode{}).Error
}

// DeactivateExpired 将已过期但仍启用的签到码置为停用
func (r *checkInCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CheckInCode{}).
		Where("is_active = ? AND valid_until <= ?", true, now).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// ── EventReview Repository 实现 ──

type eventReviewRepo struct {
	db *gorm.DB
}

// NewEventReviewRepo 创建 EventReviewRepository 实例
func NewEventReviewRepo(db *gorm.DB) EventReviewRepository {
	return &eventReviewRepo{db: db}
}

func (r *eventReviewRepo) Create(ctx context.Context, review *model.EventReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *eventReviewRepo) GetByID(ctx context.Context, id string) (*model.EventReview, error) {
	var review model.EventReview
	err := r.db.WithContext(ctx).
		Where("review_id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *eventReviewRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*model.EventReview, error) {
	var review model.EventReview
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *eventReviewRepo) ListByEvent(ctx context.Context, eventID string, offset, limit int) ([]model.EventReview, int64, error) {
	var reviews []model.EventReview
	var total int64

	db := r.db.WithContext(ctx).Model(&model.EventReview{}).Where("event_id = ?", eventID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("User").Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *eventReviewRepo) AverageRating(ctx context.Context, eventID string) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&model.EventReview{}).
		Select("AVG(rating)").
		Where("event_id = ?", eventID).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

func (r *eventReviewRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("review_id = ?", id).
		Delete(&model.EventReview{}).Error
}
