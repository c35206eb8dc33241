package handler

import "mentor-hub/server/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth               *AuthHandler
	Booking            *BookingHandler
	Post               *PostHandler
	Preview            *PreviewHandler
	Event              *EventHandler
	CheckIn            *CheckInHandler
	Export             *ExportHandler
	Profile            *ProfileHandler
	MentorRegistration *MentorRegistrationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:               NewAuthHandler(svc.Auth),
		Booking:            NewBookingHandler(svc.Booking),
		Post:               NewPostHandler(svc.Post),
		Preview:            NewPreviewHandler(svc.Preview),
		Event:              NewEventHandler(svc.Event),
		CheckIn:            NewCheckInHandler(svc.CheckIn),
		Export:             NewExportHandler(svc.Export),
		Profile:            NewProfileHandler(svc.Profile),
		MentorRegistration: NewMentorRegistrationHandler(svc.MentorRegistration),
	}
}
