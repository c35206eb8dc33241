package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// PostHandler 文章模块 HTTP 处理器
type PostHandler struct {
	postSvc service.PostService
}

// NewPostHandler 创建 PostHandler
func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{postSvc: postSvc}
}

// ────────────────────── 导师端 ──────────────────────

// ListPosts 获取当前导师的文章列表
// GET /api/v1/mentor/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	var query dto.PostListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.postSvc.List(c.Request.Context(), mentorID, &query)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OKPage(c, list, total, query.GetPage(), query.GetPageSize())
}

// GetPost 获取文章详情
// GET /api/v1/mentor/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.Get(c.Request.Context(), mentorID, c.Param("id"))
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, post)
}

// CreatePost 创建文章
// POST /api/v1/mentor/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.Create(c.Request.Context(), mentorID, &req)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.Created(c, post)
}

// UpdatePost 编辑文章
// PUT /api/v1/mentor/posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.Update(c.Request.Context(), mentorID, c.Param("id"), &req)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, post)
}

// SubmitPost 提交审核
// POST /api/v1/mentor/posts/:id/submit
func (h *PostHandler) SubmitPost(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.Submit(c.Request.Context(), mentorID, c.Param("id"))
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, post)
}

// DeletePost 删除文章
// DELETE /api/v1/mentor/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.postSvc.Delete(c.Request.Context(), mentorID, c.Param("id")); err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, nil)
}

// TogglePublish 切换发布状态
// POST /api/v1/mentor/posts/:id/toggle-publish
func (h *PostHandler) TogglePublish(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.TogglePublish(c.Request.Context(), mentorID, c.Param("id"))
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, post)
}

// ListTags 获取已使用的标签
// GET /api/v1/mentor/post-tags
func (h *PostHandler) ListTags(c *gin.Context) {
	tags, err := h.postSvc.ListTags(c.Request.Context())
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, gin.H{"list": tags})
}

// UploadThumbnail 上传文章封面
// POST /api/v1/mentor/post-thumbnails (multipart, field=file)
func (h *PostHandler) UploadThumbnail(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := h.postSvc.UploadThumbnail(c.Request.Context(), filename, data)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.Created(c, result)
}

// ────────────────────── 管理端 ──────────────────────

// ListSubmissions 审核列表
// GET /api/v1/admin/post-submissions
func (h *PostHandler) ListSubmissions(c *gin.Context) {
	var query dto.SubmissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.postSvc.ListSubmissions(c.Request.Context(), &query)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OKPage(c, list, total, query.GetPage(), query.GetPageSize())
}

// ReviewSubmission 审核文章
// PUT /api/v1/admin/post-submissions/:id
func (h *PostHandler) ReviewSubmission(c *gin.Context) {
	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.postSvc.ReviewSubmission(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, result)
}

// handlePostError 统一处理文章模块业务错误
func (h *PostHandler) handlePostError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, 13001, err.Error())
	case errors.Is(err, service.ErrPostNotEditable):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, service.ErrPostNotDeletable):
		response.Conflict(c, 13003, err.Error())
	case errors.Is(err, service.ErrPostNotPublishable):
		response.Conflict(c, 13004, err.Error())
	case errors.Is(err, service.ErrPostNotSubmittable):
		response.Conflict(c, 13005, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 13006, err.Error())
	case errors.Is(err, service.ErrSubmissionProcessed):
		response.Conflict(c, 13007, err.Error())
	default:
		response.InternalError(c)
	}
}
