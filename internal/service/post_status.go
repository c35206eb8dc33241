package service

import "mentor-hub/server/internal/model"

// 文章派生状态：不落库，由最新审核记录与 published 推导
const (
	PostStatusDraft    = "draft"
	PostStatusPending  = "pending"
	PostStatusApproved = "approved"
	PostStatusRejected = "rejected"
	PostStatusHidden   = "hidden"
)

// DerivePostStatus 无审核记录为 draft；最新审核通过但未发布为 hidden；其余取最新审核状态
func DerivePostStatus(post *model.Post, latest *model.PostSubmission) string {
	if latest == nil {
		return PostStatusDraft
	}
	if latest.Status == model.SubmissionApproved && !post.Published {
		return PostStatusHidden
	}
	return latest.Status
}

// CanEdit 草稿、已通过、已驳回可编辑；审核中不可编辑
func CanEdit(latest *model.PostSubmission) bool {
	return latest == nil ||
		latest.Status == model.SubmissionApproved ||
		latest.Status == model.SubmissionRejected
}

// CanDelete 仅"最新审核通过且仍在发布"时不可删除，需先下线
func CanDelete(post *model.Post, latest *model.PostSubmission) bool {
	return latest == nil || latest.Status != model.SubmissionApproved || !post.Published
}

// CanTogglePublish 仅最新审核通过时可切换发布状态
func CanTogglePublish(latest *model.PostSubmission) bool {
	return latest != nil && latest.Status == model.SubmissionApproved
}
