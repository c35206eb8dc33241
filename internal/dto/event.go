package dto

// ── 活动模块 DTO ──

// EventListQuery 活动列表筛选
type EventListQuery struct {
	PaginationRequest
	Keyword   string `form:"keyword"    binding:"omitempty,max=100"`
	Status    string `form:"status"     binding:"omitempty,oneof=draft open closed cancelled"`
	EventType string `form:"event_type" binding:"omitempty,oneof=online offline hybrid"`
}

// CreateEventRequest 创建活动（时间均为 RFC3339）
type CreateEventRequest struct {
	Title        string  `json:"title"         binding:"required,min=1,max=200"`
	Description  *string `json:"description"   binding:"omitempty,max=10000"`
	EventType    string  `json:"event_type"    binding:"required,oneof=online offline hybrid"`
	Location     *string `json:"location"      binding:"omitempty,max=255"`
	StartAt      string  `json:"start_at"      binding:"required"`
	EndAt        string  `json:"end_at"        binding:"required"`
	Capacity     int     `json:"capacity"      binding:"min=0"`
	Status       string  `json:"status"        binding:"omitempty,oneof=draft open closed cancelled"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,url"`
}

// UpdateEventRequest 更新活动
type UpdateEventRequest struct {
	Title        *string `json:"title"         binding:"omitempty,min=1,max=200"`
	Description  *string `json:"description"   binding:"omitempty,max=10000"`
	EventType    *string `json:"event_type"    binding:"omitempty,oneof=online offline hybrid"`
	Location     *string `json:"location"      binding:"omitempty,max=255"`
	StartAt      *string `json:"start_at"`
	EndAt        *string `json:"end_at"`
	Capacity     *int    `json:"capacity"      binding:"omitempty,min=0"`
	Status       *string `json:"status"        binding:"omitempty,oneof=draft open closed cancelled"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,url"`
}

// EventResponse 活动信息
type EventResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      *string `json:"description,omitempty"`
	EventType        string  `json:"event_type"`
	Location         *string `json:"location,omitempty"`
	StartAt          string  `json:"start_at"`
	EndAt            string  `json:"end_at"`
	Capacity         int     `json:"capacity"`
	Status           string  `json:"status"`
	ThumbnailURL     *string `json:"thumbnail_url,omitempty"`
	ParticipantCount int64   `json:"participant_count"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// EventDetailResponse 活动详情，附评价统计
type EventDetailResponse struct {
	EventResponse
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}

// ── 报名 ──

// ParticipantListQuery 报名列表筛选；keyword 匹配姓名或邮箱
type ParticipantListQuery struct {
	PaginationRequest
	Status  string `form:"status"  binding:"omitempty,oneof=registered cancelled attended no_show"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// ParticipantResponse 报名人信息
type ParticipantResponse struct {
	RegistrationID string  `json:"registration_id"`
	EventID        string  `json:"event_id"`
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	Status         string  `json:"status"`
	Motivation     *string `json:"motivation,omitempty"`
	RegisteredAt   string  `json:"registered_at"`
	CheckedInAt    *string `json:"checked_in_at,omitempty"`
}

// UpdateRegistrationStatusRequest 修改报名状态（管理员）
type UpdateRegistrationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=registered cancelled attended no_show"`
}

// RegisterEventRequest 用户报名
type RegisterEventRequest struct {
	Motivation *string `json:"motivation" binding:"omitempty,max=1000"`
}

// ── 评价 ──

// ReviewResponse 活动评价
type ReviewResponse struct {
	ID        string  `json:"id"`
	EventID   string  `json:"event_id"`
	UserID    string  `json:"user_id"`
	UserName  string  `json:"user_name,omitempty"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// SubmitReviewRequest 提交评价
type SubmitReviewRequest struct {
	Rating  int     `json:"rating"  binding:"required,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

// ── 签到码 ──

// CreateCheckInCodeRequest 创建签到码；code 缺省时随机生成，有效期缺省按配置
type CreateCheckInCodeRequest struct {
	Code       *string `json:"code"        binding:"omitempty,alphanum,min=6,max=12"`
	ValidFrom  *string `json:"valid_from"`
	ValidUntil *string `json:"valid_until"`
}

// CheckInCodeResponse 签到码信息
type CheckInCodeResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	Code       string `json:"code"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
	IsActive   bool   `json:"is_active"`
	UsedCount  int    `json:"used_count"`
	CreatedAt  string `json:"created_at"`
}

// CheckInRequest 用户签到
type CheckInRequest struct {
	Code string `json:"code" binding:"required,min=6,max=12"`
}

// CheckInResponse 签到结果
type CheckInResponse struct {
	EventID        string `json:"event_id"`
	EventTitle     string `json:"event_title"`
	RegistrationID string `json:"registration_id"`
	CheckedInAt    string `json:"checked_in_at"`
}

// ── 导出 ──

// ExportQuery 报名导出参数；fields 为逗号分隔的字段 key，为空导出全部字段。
// export_all=false 时只导出 page/page_size/筛选条件描述的当前页。
type ExportQuery struct {
	PaginationRequest
	Status    string `form:"status"     binding:"omitempty,oneof=registered cancelled attended no_show"`
	Keyword   string `form:"keyword"    binding:"omitempty,max=100"`
	Fields    string `form:"fields"`
	ExportAll bool   `form:"export_all"`
	Format    string `form:"format"     binding:"omitempty,oneof=csv xlsx"`
}

// ExportFieldResponse 可导出字段
type ExportFieldResponse struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// ExportFile 导出文件
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
