package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// EventHandler 活动模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ────────────────────── 管理端：活动 ──────────────────────

// ListEvents 获取活动列表
// GET /api/v1/admin/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	var query dto.EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.eventSvc.List(c.Request.Context(), &query)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OKPage(c, list, total, query.GetPage(), query.GetPageSize())
}

// GetEvent 获取活动详情
// GET /api/v1/admin/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// CreateEvent 创建活动
// POST /api/v1/admin/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), adminID, &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent 更新活动
// PUT /api/v1/admin/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// DeleteEvent 删除活动
// DELETE /api/v1/admin/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), adminID, c.Param("id")); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// UploadThumbnail 上传活动封面
// POST /api/v1/admin/events/:id/thumbnail (multipart, field=file)
func (h *EventHandler) UploadThumbnail(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	filename, data, ok := readUpload(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.UploadThumbnail(c.Request.Context(), adminID, c.Param("id"), filename, data)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// Calendar 下载活动日历文件
// GET /api/v1/events/:id/calendar.ics
func (h *EventHandler) Calendar(c *gin.Context) {
	data, filename, err := h.eventSvc.Calendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Attachment(c, filename, "text/calendar; charset=utf-8", data)
}

// ────────────────────── 管理端：报名与评价 ──────────────────────

// ListParticipants 获取活动报名列表
// GET /api/v1/admin/events/:id/participants
func (h *EventHandler) ListParticipants(c *gin.Context) {
	var query dto.ParticipantListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.eventSvc.ListParticipants(c.Request.Context(), c.Param("id"), &query)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OKPage(c, list, total, query.GetPage(), query.GetPageSize())
}

// UpdateRegistrationStatus 修改报名状态
// PUT /api/v1/admin/registrations/:id/status
func (h *EventHandler) UpdateRegistrationStatus(c *gin.Context) {
	var req dto.UpdateRegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.eventSvc.UpdateRegistrationStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, result)
}

// ListReviews 获取活动评价
// GET /api/v1/admin/events/:id/reviews
func (h *EventHandler) ListReviews(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.eventSvc.ListReviews(c.Request.Context(), c.Param("id"), &page)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// DeleteReview 删除评价
// DELETE /api/v1/admin/reviews/:id
func (h *EventHandler) DeleteReview(c *gin.Context) {
	if err := h.eventSvc.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 用户端 ──────────────────────

// Register 报名活动
// POST /api/v1/events/:id/registration
func (h *EventHandler) Register(c *gin.Context) {
	var req dto.RegisterEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.eventSvc.Register(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, result)
}

// CancelRegistration 取消报名
// DELETE /api/v1/events/:id/registration
func (h *EventHandler) CancelRegistration(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.eventSvc.CancelRegistration(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// SubmitReview 提交活动评价
// POST /api/v1/events/:id/reviews
func (h *EventHandler) SubmitReview(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.eventSvc.SubmitReview(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, result)
}

// handleEventError 统一处理活动模块业务错误
func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrEventTimeInvalid):
		response.BadRequest(c, 15002, err.Error())
	case errors.Is(err, service.ErrEventCapacityInvalid):
		response.BadRequest(c, 15003, err.Error())
	case errors.Is(err, service.ErrEventNotOpen):
		response.Conflict(c, 15004, err.Error())
	case errors.Is(err, service.ErrEventFull):
		response.Conflict(c, 15005, err.Error())
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 15006, err.Error())
	case errors.Is(err, service.ErrRegistrationInvalid):
		response.BadRequest(c, 15007, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		response.Conflict(c, 15008, err.Error())
	case errors.Is(err, service.ErrReviewNotFound):
		response.NotFound(c, 15009, err.Error())
	case errors.Is(err, service.ErrReviewNotAttended):
		response.Forbidden(c, 15010, err.Error())
	case errors.Is(err, service.ErrReviewExists):
		response.Conflict(c, 15011, err.Error())
	case errors.Is(err, service.ErrReviewRatingInvalid):
		response.BadRequest(c, 15012, err.Error())
	default:
		response.InternalError(c)
	}
}
