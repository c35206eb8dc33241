package model

import "time"

// 活动类型
const (
	EventOnline  = "online"
	EventOffline = "offline"
	EventHybrid  = "hybrid"
)

// 活动状态
const (
	EventDraft     = "draft"
	EventOpen      = "open"
	EventClosed    = "closed"
	EventCancelled = "cancelled"
)

// 报名状态
const (
	RegistrationRegistered = "registered"
	RegistrationCancelled  = "cancelled"
	RegistrationAttended   = "attended"
	RegistrationNoShow     = "no_show"
)

// IsValidRegistrationStatus 是否为合法的报名状态
func IsValidRegistrationStatus(s string) bool {
	switch s {
	case RegistrationRegistered, RegistrationCancelled, RegistrationAttended, RegistrationNoShow:
		return true
	}
	return false
}

// Event 活动表 — 对应 events
type Event struct {
	EventID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	Title        string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Description  *string   `gorm:"type:text"                                      json:"description,omitempty"`
	EventType    string    `gorm:"type:varchar(20);not null"                      json:"event_type"`
	Location     *string   `gorm:"type:varchar(255)"                              json:"location,omitempty"`
	StartAt      time.Time `gorm:"not null"                                       json:"start_at"`
	EndAt        time.Time `gorm:"not null"                                       json:"end_at"`
	Capacity     int       `gorm:"not null;default:0"                             json:"capacity"`
	Status       string    `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	ThumbnailURL *string   `gorm:"type:text"                                      json:"thumbnail_url,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// EventRegistration 活动报名 — 对应 event_registrations，(event_id, user_id) 唯一
type EventRegistration struct {
	RegistrationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"registration_id"`
	EventID        string     `gorm:"type:uuid;not null"                             json:"event_id"`
	UserID         string     `gorm:"type:uuid;not null"                             json:"user_id"`
	Status         string     `gorm:"type:varchar(20);not null;default:'registered'" json:"status"`
	Motivation     *string    `gorm:"type:text"                                      json:"motivation,omitempty"`
	RegisteredAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"registered_at"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	CheckInCodeID  *string    `gorm:"type:uuid"                                      json:"check_in_code_id,omitempty"`
	UpdatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (EventRegistration) TableName() string { return "event_registrations" }

// CheckInCode 签到码 — 对应 check_in_codes，code 全局唯一
type CheckInCode struct {
	CodeID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"code_id"`
	EventID    string    `gorm:"type:uuid;not null;index"                       json:"event_id"`
	Code       string    `gorm:"type:varchar(12);not null;uniqueIndex"          json:"code"`
	ValidFrom  time.Time `gorm:"not null"                                       json:"valid_from"`
	ValidUntil time.Time `gorm:"not null"                                       json:"valid_until"`
	IsActive   bool      `gorm:"not null;default:true"                          json:"is_active"`
	UsedCount  int       `gorm:"not null;default:0"                             json:"used_count"`
	BaseModel
}

// TableName 指定表名
func (CheckInCode) TableName() string { return "check_in_codes" }

// ValidAt 指定时刻是否可用于签到
func (c *CheckInCode) ValidAt(t time.Time) bool {
	return c.IsActive && !t.Before(c.ValidFrom) && t.Before(c.ValidUntil)
}

// EventReview 活动评价 — 对应 event_reviews
type EventReview struct {
	ReviewID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	EventID   string    `gorm:"type:uuid;not null"                             json:"event_id"`
	UserID    string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Rating    int       `gorm:"type:smallint;not null"                         json:"rating"`
	Comment   *string   `gorm:"type:text"                                      json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (EventReview) TableName() string { return "event_reviews" }
