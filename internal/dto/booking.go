package dto

// ── 预约模块 DTO ──

// BookingListQuery 预约列表筛选；search 匹配学员姓名或邮箱（不区分大小写）
type BookingListQuery struct {
	Search string `form:"search" binding:"omitempty,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
}

// UpdateBookingStatusRequest 更新预约状态；scheduled_date 仅在确认时使用（RFC3339）
type UpdateBookingStatusRequest struct {
	Status        string  `json:"status"         binding:"required,oneof=pending confirmed completed cancelled"`
	ScheduledDate *string `json:"scheduled_date" binding:"omitempty,notpast"`
}

// UpdateBookingNotesRequest 更新导师私有备注
type UpdateBookingNotesRequest struct {
	MentorNotes string `json:"mentor_notes" binding:"max=2000"`
}

// BookingResponse 预约信息
type BookingResponse struct {
	ID            string  `json:"id"`
	MentorID      string  `json:"mentor_id"`
	LearnerID     string  `json:"learner_id"`
	LearnerName   string  `json:"learner_name"`
	LearnerEmail  string  `json:"learner_email"`
	Status        string  `json:"status"`
	SessionType   string  `json:"session_type"`
	ScheduledDate *string `json:"scheduled_date,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	MentorNotes   *string `json:"mentor_notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}
