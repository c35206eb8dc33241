package dto

import "mentor-hub/server/internal/model"

// ── 导师资料 DTO ──

// SaveMentorProfileRequest 整体保存导师资料（四个数组整体替换）
type SaveMentorProfileRequest struct {
	Headline          *string                `json:"headline"            binding:"omitempty,max=200"`
	Bio               *string                `json:"bio"                 binding:"omitempty,max=5000"`
	Company           *string                `json:"company"             binding:"omitempty,max=200"`
	JobTitle          *string                `json:"job_title"           binding:"omitempty,max=200"`
	YearsOfExperience int                    `json:"years_of_experience" binding:"min=0,max=80"`
	LinkedInURL       *string                `json:"linkedin_url"        binding:"omitempty,url"`
	AvatarURL         *string                `json:"avatar_url"          binding:"omitempty,url"`
	Skills            []model.SkillEntry     `json:"skills"              binding:"max=50"`
	WorkExperiences   []model.WorkExperience `json:"work_experiences"    binding:"max=30"`
	Educations        []model.Education      `json:"educations"          binding:"max=20"`
	Activities        []model.Activity       `json:"activities"          binding:"max=50"`
	Version           int                    `json:"version"             binding:"required,min=1"`
}

// MentorProfileResponse 导师资料
type MentorProfileResponse struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"user_id"`
	Headline          *string                `json:"headline,omitempty"`
	Bio               *string                `json:"bio,omitempty"`
	Company           *string                `json:"company,omitempty"`
	JobTitle          *string                `json:"job_title,omitempty"`
	YearsOfExperience int                    `json:"years_of_experience"`
	LinkedInURL       *string                `json:"linkedin_url,omitempty"`
	AvatarURL         *string                `json:"avatar_url,omitempty"`
	Skills            []model.SkillEntry     `json:"skills"`
	WorkExperiences   []model.WorkExperience `json:"work_experiences"`
	Educations        []model.Education      `json:"educations"`
	Activities        []model.Activity       `json:"activities"`
	Version           int                    `json:"version"`
	UpdatedAt         string                 `json:"updated_at"`
}

// ── 导师申请 DTO ──

// MentorRegisterRequest 导师申请；各项规则在 service 层逐条校验并返回具体提示
type MentorRegisterRequest struct {
	FullName     string  `json:"full_name"     binding:"max=100"`
	Email        string  `json:"email"         binding:"max=255"`
	Phone        string  `json:"phone"         binding:"max=30"`
	Bio          string  `json:"bio"           binding:"max=5000"`
	Expertise    *string `json:"expertise"     binding:"omitempty,max=200"`
	AgreedPolicy bool    `json:"agreed_policy"`
}

// MentorRegistrationResponse 导师申请记录
type MentorRegistrationResponse struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	Bio        string  `json:"bio"`
	Expertise  *string `json:"expertise,omitempty"`
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes,omitempty"`
	CreatedAt  string  `json:"created_at"`
	ReviewedAt *string `json:"reviewed_at,omitempty"`
}

// MentorRegistrationStatusResponse 当前用户的申请状态：
// none | pending | approved | rejected | already_mentor
type MentorRegistrationStatusResponse struct {
	Status       string                      `json:"status"`
	Registration *MentorRegistrationResponse `json:"registration,omitempty"`
}

// MentorRegistrationListQuery 申请列表筛选（管理员）
type MentorRegistrationListQuery struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// ReviewMentorRegistrationRequest 审核导师申请
type ReviewMentorRegistrationRequest struct {
	Decision   string  `json:"decision"    binding:"required,oneof=approve reject"`
	AdminNotes *string `json:"admin_notes" binding:"omitempty,max=1000"`
}
