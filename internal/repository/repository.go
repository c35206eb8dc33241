package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User               UserRepository
	Booking            BookingRepository
	Post               PostRepository
	PostSubmission     PostSubmissionRepository
	Event              EventRepository
	EventRegistration  EventRegistrationRepository
	CheckInCode        CheckInCodeRepository
	EventReview        EventReviewRepository
	MentorProfile      MentorProfileRepository
	MentorRegistration MentorRegistrationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                 db,
		User:               NewUserRepo(db),
		Booking:            NewBookingRepo(db),
		Post:               NewPostRepo(db),
		PostSubmission:     NewPostSubmissionRepo(db),
		Event:              NewEventRepo(db),
		EventRegistration:  NewEventRegistrationRepo(db),
		CheckInCode:        NewCheckInCodeRepo(db),
		EventReview:        NewEventReviewRepo(db),
		MentorProfile:      NewMentorProfileRepo(db),
		MentorRegistration: NewMentorRegistrationRepo(db),
	}
}

// WithTx 基于事务连接构造新的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个数据库事务中执行 fn；fn 返回错误时回滚。
// 未绑定数据库（测试中直接组装 mock 时）直接以自身执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
