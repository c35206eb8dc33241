package repository

import (
	"context"

	"gorm.io/gorm"

	"mentor-hub/server/internal/model"
)

// BookingRepository 预约数据访问接口；预约只更新、不删除
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByMentor(ctx context.Context, mentorID string) ([]model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
}

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) ListByMentor(ctx context.Context, mentorID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("mentor_id = ?", mentorID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// Update 仅写回导师可修改的列
func (r *bookingRepo) Update(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_id = ?", booking.BookingID).
		Updates(map[string]interface{}{
			"status":         booking.Status,
			"scheduled_date": booking.ScheduledDate,
			"mentor_notes":   booking.MentorNotes,
			"updated_by":     booking.UpdatedBy,
			"updated_at":     gorm.Expr("NOW()"),
		}).Error
}
