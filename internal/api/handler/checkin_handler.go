package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// CheckInHandler 签到码与签到 HTTP 处理器
type CheckInHandler struct {
	checkInSvc service.CheckInService
}

// NewCheckInHandler 创建 CheckInHandler
func NewCheckInHandler(checkInSvc service.CheckInService) *CheckInHandler {
	return &CheckInHandler{checkInSvc: checkInSvc}
}

// CreateCode 创建签到码
// POST /api/v1/admin/events/:id/checkin-codes
func (h *CheckInHandler) CreateCode(c *gin.Context) {
	var req dto.CreateCheckInCodeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	code, err := h.checkInSvc.CreateCode(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.handleCheckInError(c, err)
		return
	}

	response.Created(c, code)
}

// ListCodes 获取活动的签到码
// GET /api/v1/admin/events/:id/checkin-codes
func (h *CheckInHandler) ListCodes(c *gin.Context) {
	codes, err := h.checkInSvc.ListCodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCheckInError(c, err)
		return
	}

	response.OK(c, gin.H{"list": codes})
}

// DeactivateCode 停用签到码
// POST /api/v1/admin/checkin-codes/:id/deactivate
func (h *CheckInHandler) DeactivateCode(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	code, err := h.checkInSvc.DeactivateCode(c.Request.Context(), adminID, c.Param("id"))
	if err != nil {
		h.handleCheckInError(c, err)
		return
	}

	response.OK(c, code)
}

// DeleteCode 删除签到码
// DELETE /api/v1/admin/checkin-codes/:id
func (h *CheckInHandler) DeleteCode(c *gin.Context) {
	if err := h.checkInSvc.DeleteCode(c.Request.Context(), c.Param("id")); err != nil {
		h.handleCheckInError(c, err)
		return
	}

	response.OK(c, nil)
}

// CheckIn 用户凭签到码签到
// POST /api/v1/checkin
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.checkInSvc.CheckIn(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleCheckInError(c, err)
		return
	}

	response.OK(c, result)
}

// handleCheckInError 统一处理签到模块业务错误
func (h *CheckInHandler) handleCheckInError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrCheckInCodeNotFound):
		response.NotFound(c, 16001, err.Error())
	case errors.Is(err, service.ErrCheckInCodeInactive):
		response.BadRequest(c, 16002, err.Error())
	case errors.Is(err, service.ErrCheckInCodeExpired):
		response.BadRequest(c, 16003, err.Error())
	case errors.Is(err, service.ErrCheckInCodeExists):
		response.Conflict(c, 16004, err.Error())
	case errors.Is(err, service.ErrCheckInCodeFormat):
		response.BadRequest(c, 16005, err.Error())
	case errors.Is(err, service.ErrCheckInWindowInvalid):
		response.BadRequest(c, 16006, err.Error())
	case errors.Is(err, service.ErrNotRegistered):
		response.Forbidden(c, 16007, err.Error())
	case errors.Is(err, service.ErrRegistrationCancelled):
		response.Forbidden(c, 16008, err.Error())
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		response.Conflict(c, 16009, err.Error())
	default:
		response.InternalError(c)
	}
}
