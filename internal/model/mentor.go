package model

import (
	"time"

	"gorm.io/datatypes"
)

// SkillEntry 技能
type SkillEntry struct {
	Name      string `json:"name"`
	Level     string `json:"level,omitempty"`
	Published bool   `json:"published"`
}

// WorkExperience 工作经历，EndDate 为空表示至今
type WorkExperience struct {
	Company     string  `json:"company"`
	Title       string  `json:"title"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	Description string  `json:"description,omitempty"`
	Published   bool    `json:"published"`
}

// Education 教育经历
type Education struct {
	School    string  `json:"school"`
	Degree    string  `json:"degree,omitempty"`
	Field     string  `json:"field,omitempty"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
	Published bool    `json:"published"`
}

// Activity 社区活动 / 演讲 / 开源等
type Activity struct {
	Title       string `json:"title"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Published   bool   `json:"published"`
}

// MentorProfile 导师资料 — 对应 mentor_profiles，每个用户至多一份
type MentorProfile struct {
	ProfileID         string                              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"profile_id"`
	UserID            string                              `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	Headline          *string                             `gorm:"type:varchar(200)"                              json:"headline,omitempty"`
	Bio               *string                             `gorm:"type:text"                                      json:"bio,omitempty"`
	Company           *string                             `gorm:"type:varchar(200)"                              json:"company,omitempty"`
	JobTitle          *string                             `gorm:"type:varchar(200)"                              json:"job_title,omitempty"`
	YearsOfExperience int                                 `gorm:"not null;default:0"                             json:"years_of_experience"`
	LinkedInURL       *string                             `gorm:"column:linkedin_url;type:text"                  json:"linkedin_url,omitempty"`
	AvatarURL         *string                             `gorm:"type:text"                                      json:"avatar_url,omitempty"`
	Skills            datatypes.JSONSlice[SkillEntry]     `gorm:"type:jsonb;not null;default:'[]'"               json:"skills"`
	WorkExperiences   datatypes.JSONSlice[WorkExperience] `gorm:"type:jsonb;not null;default:'[]'"               json:"work_experiences"`
	Educations        datatypes.JSONSlice[Education]      `gorm:"type:jsonb;not null;default:'[]'"               json:"educations"`
	Activities        datatypes.JSONSlice[Activity]       `gorm:"type:jsonb;not null;default:'[]'"               json:"activities"`
	VersionedModel
}

// TableName 指定表名
func (MentorProfile) TableName() string { return "mentor_profiles" }

// 导师申请状态
const (
	MentorRegPending  = "pending"
	MentorRegApproved = "approved"
	MentorRegRejected = "rejected"
)

// MentorRegistration 导师申请 — 对应 mentor_registrations
type MentorRegistration struct {
	RegistrationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"registration_id"`
	UserID         string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	FullName       string     `gorm:"type:varchar(100);not null"                     json:"full_name"`
	Email          string     `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone          string     `gorm:"type:varchar(32);not null"                      json:"phone"`
	Bio            string     `gorm:"type:text;not null"                             json:"bio"`
	Expertise      *string    `gorm:"type:varchar(200)"                              json:"expertise,omitempty"`
	AgreedPolicyAt time.Time  `gorm:"not null"                                       json:"agreed_policy_at"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	AdminNotes     *string    `gorm:"type:text"                                      json:"admin_notes,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy     *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (MentorRegistration) TableName() string { return "mentor_registrations" }
