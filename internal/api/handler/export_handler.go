package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/service"
	"mentor-hub/server/pkg/response"
)

// ExportHandler 报名导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ListFields 可导出字段目录
// GET /api/v1/admin/export/fields
func (h *ExportHandler) ListFields(c *gin.Context) {
	response.OK(c, gin.H{"list": h.exportSvc.Fields()})
}

// ExportParticipants 导出活动报名
// GET /api/v1/admin/events/:id/export?fields=name,email&export_all=true&format=csv
func (h *ExportHandler) ExportParticipants(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	file, err := h.exportSvc.ExportParticipants(c.Request.Context(), c.Param("id"), &query)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 15001, err.Error())
	case errors.Is(err, service.ErrExportUnknownField):
		response.BadRequest(c, 17001, err.Error())
	default:
		response.InternalError(c)
	}
}
