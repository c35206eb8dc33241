package model

import "time"

// 预约状态
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// IsValidBookingStatus 是否为合法的预约状态
func IsValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Booking 预约表 — 对应 bookings，只更新不删除
type Booking struct {
	BookingID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	MentorID      string     `gorm:"type:uuid;not null;index"                       json:"mentor_id"`
	LearnerID     string     `gorm:"type:uuid;not null"                             json:"learner_id"`
	LearnerName   string     `gorm:"type:varchar(100);not null"                     json:"learner_name"`
	LearnerEmail  string     `gorm:"type:varchar(255);not null"                     json:"learner_email"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	SessionType   string     `gorm:"type:varchar(50);not null"                      json:"session_type"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Notes         *string    `gorm:"type:text"                                      json:"notes,omitempty"`
	MentorNotes   *string    `gorm:"type:text"                                      json:"mentor_notes,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }
