package model

import (
	"time"

	"github.com/lib/pq"
)

// 文章类型
const (
	PostTypeArticle = "article"
	PostTypeTip     = "tip"
	PostTypeStory   = "story"
	PostTypeNews    = "news"
)

// 审核状态
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Post 文章表 — 对应 posts
type Post struct {
	PostID       string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"post_id"`
	MentorID     string         `gorm:"type:uuid;not null;index"                       json:"mentor_id"`
	Title        string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Summary      *string        `gorm:"type:varchar(500)"                              json:"summary,omitempty"`
	Content      string         `gorm:"type:text;not null"                             json:"content"`
	PostType     string         `gorm:"type:varchar(20);not null"                      json:"post_type"`
	ThumbnailURL *string        `gorm:"type:text"                                      json:"thumbnail_url,omitempty"`
	Tags         pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"tags"`
	Published    bool           `gorm:"not null;default:false"                         json:"published"`
	VersionedModel
}

// TableName 指定表名
func (Post) TableName() string { return "posts" }

// PostSubmission 文章审核记录 — 对应 post_submissions，每次提交新增一行
type PostSubmission struct {
	SubmissionID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	PostID       string     `gorm:"type:uuid;not null;index"                       json:"post_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	AdminNotes   *string    `gorm:"type:text"                                      json:"admin_notes,omitempty"`
	SubmittedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy   *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
}

// TableName 指定表名
func (PostSubmission) TableName() string { return "post_submissions" }
