package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// PreviewHandler 实时预览 HTTP 处理器
type PreviewHandler struct {
	previewSvc service.PreviewService
}

// NewPreviewHandler 创建 PreviewHandler
func NewPreviewHandler(previewSvc service.PreviewService) *PreviewHandler {
	return &PreviewHandler{previewSvc: previewSvc}
}

// OpenPreview 为文章打开实时预览会话
// POST /api/v1/mentor/posts/:id/preview
func (h *PreviewHandler) OpenPreview(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.previewSvc.Open(c.Request.Context(), mentorID, c.Param("id"))
	if err != nil {
		h.handlePreviewError(c, err)
		return
	}

	response.Created(c, result)
}

// GetDraft 读取文章的主草稿
// GET /api/v1/mentor/posts/:id/preview/draft
func (h *PreviewHandler) GetDraft(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.previewSvc.Draft(c.Request.Context(), mentorID, c.Param("id"))
	if err != nil {
		h.handlePreviewError(c, err)
		return
	}

	response.OK(c, result)
}

// Push 预览端推送内容变更
// PUT /api/v1/mentor/previews/:session_id
func (h *PreviewHandler) Push(c *gin.Context) {
	var req dto.PushPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.previewSvc.Push(c.Request.Context(), mentorID, c.Param("session_id"), req.Content); err != nil {
		h.handlePreviewError(c, err)
		return
	}

	response.OK(c, nil)
}

// Render 渲染主草稿为 HTML
// GET /api/v1/mentor/previews/:session_id/render
func (h *PreviewHandler) Render(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.previewSvc.Render(c.Request.Context(), mentorID, c.Param("session_id"))
	if err != nil {
		h.handlePreviewError(c, err)
		return
	}

	response.OK(c, result)
}

// ClosePreview 关闭预览会话并同步最终内容
// DELETE /api/v1/mentor/previews/:session_id
func (h *PreviewHandler) ClosePreview(c *gin.Context) {
	var req dto.ClosePreviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.previewSvc.Close(c.Request.Context(), mentorID, c.Param("session_id"), req.Content)
	if err != nil {
		h.handlePreviewError(c, err)
		return
	}

	response.OK(c, result)
}

// handlePreviewError 统一处理预览模块业务错误
func (h *PreviewHandler) handlePreviewError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, 13001, err.Error())
	case errors.Is(err, service.ErrPreviewNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrPreviewBusy):
		response.Conflict(c, 14002, err.Error())
	case errors.Is(err, service.ErrPreviewDraftMissing):
		response.NotFound(c, 14003, err.Error())
	default:
		response.InternalError(c)
	}
}
