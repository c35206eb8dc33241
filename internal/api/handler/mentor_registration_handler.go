package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// MentorRegistrationHandler 导师申请 HTTP 处理器
type MentorRegistrationHandler struct {
	regSvc service.MentorRegistrationService
}

// NewMentorRegistrationHandler 创建 MentorRegistrationHandler
func NewMentorRegistrationHandler(regSvc service.MentorRegistrationService) *MentorRegistrationHandler {
	return &MentorRegistrationHandler{regSvc: regSvc}
}

// GetStatus 当前用户的导师申请状态
// GET /api/v1/mentor-registration
func (h *MentorRegistrationHandler) GetStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	status, err := h.regSvc.Status(c.Request.Context(), userID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, status)
}

// Register 提交导师申请
// POST /api/v1/mentor-registration
func (h *MentorRegistrationHandler) Register(c *gin.Context) {
	var req dto.MentorRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reg, err := h.regSvc.Register(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.Created(c, reg)
}

// List 导师申请列表
// GET /api/v1/admin/mentor-registrations
func (h *MentorRegistrationHandler) List(c *gin.Context) {
	var query dto.MentorRegistrationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.regSvc.List(c.Request.Context(), &query)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OKPage(c, list, total, query.GetPage(), query.GetPageSize())
}

// Review 审核导师申请
// PUT /api/v1/admin/mentor-registrations/:id
func (h *MentorRegistrationHandler) Review(c *gin.Context) {
	var req dto.ReviewMentorRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reg, err := h.regSvc.Review(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, reg)
}

// handleRegistrationError 统一处理导师申请业务错误
func (h *MentorRegistrationHandler) handleRegistrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPolicyNotAgreed):
		response.BadRequest(c, 19001, err.Error())
	case errors.Is(err, service.ErrFullNameRequired):
		response.BadRequest(c, 19002, err.Error())
	case errors.Is(err, service.ErrRegistrationEmailInvalid):
		response.BadRequest(c, 19003, err.Error())
	case errors.Is(err, service.ErrRegistrationPhoneInvalid):
		response.BadRequest(c, 19004, err.Error())
	case errors.Is(err, service.ErrBioTooShort):
		response.BadRequest(c, 19005, err.Error())
	case errors.Is(err, service.ErrAlreadyMentor):
		response.Conflict(c, 19006, err.Error())
	case errors.Is(err, service.ErrRegistrationPending):
		response.Conflict(c, 19007, err.Error())
	case errors.Is(err, service.ErrMentorRegNotFound):
		response.NotFound(c, 19008, err.Error())
	case errors.Is(err, service.ErrMentorRegAlreadyProcessed):
		response.Conflict(c, 19009, err.Error())
	default:
		response.InternalError(c)
	}
}
