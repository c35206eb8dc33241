package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// ProfileHandler 导师资料 HTTP 处理器
type ProfileHandler struct {
	profileSvc service.ProfileService
}

// NewProfileHandler 创建 ProfileHandler
func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// GetMine 获取当前导师的完整资料
// GET /api/v1/mentor/profile
func (h *ProfileHandler) GetMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.GetMine(c.Request.Context(), userID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// SaveMine 整体保存资料
// PUT /api/v1/mentor/profile
func (h *ProfileHandler) SaveMine(c *gin.Context) {
	var req dto.SaveMentorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.SaveMine(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// UploadAvatar 上传头像
// POST /api/v1/mentor/profile/avatar (multipart, field=file)
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	filename, data, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := h.profileSvc.UploadAvatar(c.Request.Context(), userID, filename, data)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.Created(c, result)
}

// GetPublic 公开资料，仅包含已发布条目
// GET /api/v1/mentors/:id
func (h *ProfileHandler) GetPublic(c *gin.Context) {
	profile, err := h.profileSvc.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, profile)
}

// handleProfileError 统一处理导师资料业务错误
func (h *ProfileHandler) handleProfileError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		response.NotFound(c, 18001, err.Error())
	case errors.Is(err, service.ErrProfileEntryInvalid):
		response.BadRequest(c, 18002, err.Error())
	case errors.Is(err, service.ErrProfileDateInvalid):
		response.BadRequest(c, 18003, err.Error())
	case errors.Is(err, service.ErrProfileDateOrder):
		response.BadRequest(c, 18004, err.Error())
	default:
		response.InternalError(c)
	}
}
