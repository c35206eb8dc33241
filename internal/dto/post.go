package dto

// ── 文章模块 DTO ──

// PostListQuery 文章列表筛选；status 为派生状态
type PostListQuery struct {
	PaginationRequest
	PostType string `form:"post_type" binding:"omitempty,oneof=article tip story news"`
	Status   string `form:"status"    binding:"omitempty,oneof=draft pending approved rejected hidden"`
	Tag      string `form:"tag"       binding:"omitempty,max=30"`
	Keyword  string `form:"keyword"   binding:"omitempty,max=100"`
}

// CreatePostRequest 创建文章；submit=true 时同时提交审核
type CreatePostRequest struct {
	Title        string   `json:"title"         binding:"required,min=1,max=200"`
	Summary      *string  `json:"summary"       binding:"omitempty,max=500"`
	Content      string   `json:"content"       binding:"required"`
	PostType     string   `json:"post_type"     binding:"required,oneof=article tip story news"`
	ThumbnailURL *string  `json:"thumbnail_url" binding:"omitempty,url"`
	Tags         []string `json:"tags"          binding:"omitempty,max=10,dive,min=1,max=30"`
	Submit       bool     `json:"submit"`
}

// UpdatePostRequest 编辑文章，version 用于乐观锁
type UpdatePostRequest struct {
	Title        *string   `json:"title"         binding:"omitempty,min=1,max=200"`
	Summary      *string   `json:"summary"       binding:"omitempty,max=500"`
	Content      *string   `json:"content"`
	PostType     *string   `json:"post_type"     binding:"omitempty,oneof=article tip story news"`
	ThumbnailURL *string   `json:"thumbnail_url" binding:"omitempty,url"`
	Tags         *[]string `json:"tags"          binding:"omitempty,max=10,dive,min=1,max=30"`
	Version      int       `json:"version"       binding:"required,min=1"`
}

// PostResponse 文章信息，附带派生状态与可执行操作
type PostResponse struct {
	ID               string              `json:"id"`
	MentorID         string              `json:"mentor_id"`
	Title            string              `json:"title"`
	Summary          *string             `json:"summary,omitempty"`
	Content          string              `json:"content"`
	PostType         string              `json:"post_type"`
	ThumbnailURL     *string             `json:"thumbnail_url,omitempty"`
	Tags             []string            `json:"tags"`
	Published        bool                `json:"published"`
	Version          int                 `json:"version"`
	Status           string              `json:"status"`
	CanEdit          bool                `json:"can_edit"`
	CanDelete        bool                `json:"can_delete"`
	CanTogglePublish bool                `json:"can_toggle_publish"`
	LatestSubmission *SubmissionResponse `json:"latest_submission,omitempty"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

// SubmissionResponse 审核记录
type SubmissionResponse struct {
	ID          string  `json:"id"`
	PostID      string  `json:"post_id"`
	Status      string  `json:"status"`
	AdminNotes  *string `json:"admin_notes,omitempty"`
	SubmittedAt string  `json:"submitted_at"`
	ReviewedAt  *string `json:"reviewed_at,omitempty"`
}

// SubmissionListQuery 审核列表筛选（管理员）
type SubmissionListQuery struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// ReviewSubmissionRequest 审核文章
type ReviewSubmissionRequest struct {
	Status     string  `json:"status"      binding:"required,oneof=approved rejected"`
	AdminNotes *string `json:"admin_notes" binding:"omitempty,max=1000"`
}

// ── 实时预览 ──

// OpenPreviewResponse 打开预览
type OpenPreviewResponse struct {
	SessionID string `json:"session_id"`
	PostID    string `json:"post_id"`
	Content   string `json:"content"`
	State     string `json:"state"`
}

// PushPreviewRequest 预览端内容变更
type PushPreviewRequest struct {
	Content string `json:"content" binding:"max=200000"`
}

// ClosePreviewRequest 关闭预览；content 为预览端最终内容，缺省时回退到最近一次推送
type ClosePreviewRequest struct {
	Content *string `json:"content" binding:"omitempty,max=200000"`
}

// PreviewRenderResponse 主草稿的 HTML 渲染结果
type PreviewRenderResponse struct {
	SessionID string `json:"session_id"`
	HTML      string `json:"html"`
	State     string `json:"state"`
}

// PreviewDraftResponse 主草稿内容
type PreviewDraftResponse struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}
