package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// BookingHandler 导师预约模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// ListBookings 获取当前导师的预约列表
// GET /api/v1/mentor/bookings?search=&status=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var query dto.BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.bookingSvc.List(c.Request.Context(), mentorID, &query)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetBooking 获取预约详情
// GET /api/v1/mentor/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Get(c.Request.Context(), mentorID, c.Param("id"))
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// UpdateStatus 更新预约状态
// PUT /api/v1/mentor/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.UpdateStatus(c.Request.Context(), mentorID, c.Param("id"), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// UpdateNotes 更新导师备注
// PUT /api/v1/mentor/bookings/:id/notes
func (h *BookingHandler) UpdateNotes(c *gin.Context) {
	var req dto.UpdateBookingNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.UpdateNotes(c.Request.Context(), mentorID, c.Param("id"), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// CalendarFeed 已确认预约的日历订阅文件
// GET /api/v1/mentor/calendar.ics
func (h *BookingHandler) CalendarFeed(c *gin.Context) {
	mentorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.bookingSvc.CalendarFeed(c.Request.Context(), mentorID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Attachment(c, "bookings.ics", "text/calendar; charset=utf-8", data)
}

// handleBookingError 统一处理预约模块业务错误
func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 12001, err.Error())
	case errors.Is(err, service.ErrBookingInvalidStatus):
		response.BadRequest(c, 12002, err.Error())
	case errors.Is(err, service.ErrBookingScheduleRequired):
		response.BadRequest(c, 12003, err.Error())
	case errors.Is(err, service.ErrBookingScheduleInvalid):
		response.BadRequest(c, 12004, err.Error())
	case errors.Is(err, service.ErrBookingSchedulePast):
		response.BadRequest(c, 12005, err.Error())
	case errors.Is(err, service.ErrBookingCompleted):
		response.Conflict(c, 12006, err.Error())
	case errors.Is(err, service.ErrBookingNotesTooLong):
		response.BadRequest(c, 12007, err.Error())
	default:
		response.InternalError(c)
	}
}
