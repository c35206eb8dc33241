package service

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-hub/server/internal/dto"
	"mentor-hub/server/internal/model"
	"mentor-hub/server/internal/repository"
	"mentor-hub/server/pkg/csvexport"
)

// ── 导出模块业务错误 ──

var (
	ErrExportUnknownField = errors.New("存在无法识别的导出字段")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出字段分类
const (
	CategoryRegistration = "registration"
	CategoryUser         = "user"
	CategoryAttendance   = "attendance"
	CategoryReview       = "review"
)

const (
	exportTimeLayout = "2006-01-02 15:04:05"
	exportSheetName  = "参与者"
)

// exportRow 一名参与者及其评价
type exportRow struct {
	reg    *model.EventRegistration
	review *model.EventReview
}

// exportField 可导出字段
type exportField struct {
	key      string
	label    string
	category string
	value    func(r exportRow) string
}

var exportFields = []exportField{
	{"registration_id", "报名编号", CategoryRegistration, func(r exportRow) string { return r.reg.RegistrationID }},
	{"registration_status", "报名状态", CategoryRegistration, func(r exportRow) string { return registrationStatusLabel(r.reg.Status) }},
	{"motivation", "报名动机", CategoryRegistration, func(r exportRow) string { return deref(r.reg.Motivation) }},
	{"registered_at", "报名时间", CategoryRegistration, func(r exportRow) string { return r.reg.RegisteredAt.Format(exportTimeLayout) }},
	{"name", "姓名", CategoryUser, func(r exportRow) string {
		if r.reg.User == nil {
			return ""
		}
		return r.reg.User.Name
	}},
	{"email", "邮箱", CategoryUser, func(r exportRow) string {
		if r.reg.User == nil {
			return ""
		}
		return r.reg.User.Email
	}},
	{"phone", "手机号", CategoryUser, func(r exportRow) string {
		if r.reg.User == nil {
			return ""
		}
		return deref(r.reg.User.Phone)
	}},
	{"attended", "是否出席", CategoryAttendance, func(r exportRow) string {
		if r.reg.Status == model.RegistrationAttended {
			return "是"
		}
		return "否"
	}},
	{"checked_in_at", "签到时间", CategoryAttendance, func(r exportRow) string {
		if r.reg.CheckedInAt == nil {
			return ""
		}
		return r.reg.CheckedInAt.Format(exportTimeLayout)
	}},
	{"rating", "评分", CategoryReview, func(r exportRow) string {
		if r.review == nil {
			return ""
		}
		return strconv.Itoa(r.review.Rating)
	}},
	{"review_comment", "评价内容", CategoryReview, func(r exportRow) string {
		if r.review == nil {
			return ""
		}
		return deref(r.review.Comment)
	}},
	{"reviewed_at", "评价时间", CategoryReview, func(r exportRow) string {
		if r.review == nil {
			return ""
		}
		return r.review.CreatedAt.Format(exportTimeLayout)
	}},
}

// ExportService 导出业务接口
type ExportService interface {
	Fields() []dto.ExportFieldResponse
	// ExportParticipants export_all=false 时只导出查询参数描述的当前页；
	// export_all=true 时忽略分页与筛选，重新拉取该活动全部报名
	ExportParticipants(ctx context.Context, eventID string, query *dto.ExportQuery) (*dto.ExportFile, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ────────────────────── Fields ──────────────────────

func (s *exportService) Fields() []dto.ExportFieldResponse {
	result := make([]dto.ExportFieldResponse, 0, len(exportFields))
	for _, f := range exportFields {
		result = append(result, dto.ExportFieldResponse{Key: f.key, Label: f.label, Category: f.category})
	}
	return result
}

// ────────────────────── ExportParticipants ──────────────────────

func (s *exportService) ExportParticipants(ctx context.Context, eventID string, query *dto.ExportQuery) (*dto.ExportFile, error) {
	fields, err := selectExportFields(query.Fields)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	// 1. 报名数据
	var regs []model.EventRegistration
	if query.ExportAll {
		regs, _, err = s.repo.EventRegistration.ListByEvent(ctx, eventID, repository.RegistrationFilter{}, 0, 0)
	} else {
		regs, _, err = s.repo.EventRegistration.ListByEvent(ctx, eventID, repository.RegistrationFilter{
			Status:  query.Status,
			Keyword: query.Keyword,
		}, query.GetOffset(), query.GetPageSize())
	}
	if err != nil {
		s.logger.Error("查询报名列表失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	// 2. 评价数据（仅在选中评价字段时查询）
	reviews := make(map[string]*model.EventReview)
	if hasCategory(fields, CategoryReview) {
		list, _, err := s.repo.EventReview.ListByEvent(ctx, eventID, 0, 0)
		if err != nil {
			s.logger.Error("查询评价失败", zap.String("event_id", eventID), zap.Error(err))
			return nil, err
		}
		for i := range list {
			reviews[list[i].UserID] = &list[i]
		}
	}

	// 3. 组装矩阵
	header := make([]string, 0, len(fields))
	for _, f := range fields {
		header = append(header, f.label)
	}
	rows := make([][]string, 0, len(regs))
	for i := range regs {
		r := exportRow{reg: &regs[i], review: reviews[regs[i].UserID]}
		row := make([]string, 0, len(fields))
		for _, f := range fields {
			row = append(row, f.value(r))
		}
		rows = append(rows, row)
	}

	base := eventFileBase(event) + "_participants"
	if query.Format == "xlsx" {
		data, err := buildXLSX(header, rows)
		if err != nil {
			s.logger.Error("生成 Excel 失败", zap.String("event_id", eventID), zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &dto.ExportFile{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	}

	return &dto.ExportFile{
		Filename:    base + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        csvexport.Build(header, rows),
	}, nil
}

// ── 辅助函数 ──

// selectExportFields 解析逗号分隔的字段 key；为空时返回全部字段，保持目录顺序
func selectExportFields(raw string) ([]exportField, error) {
	if strings.TrimSpace(raw) == "" {
		return exportFields, nil
	}

	wanted := make(map[string]bool)
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !knownExportField(key) {
			return nil, ErrExportUnknownField
		}
		wanted[key] = true
	}
	if len(wanted) == 0 {
		return exportFields, nil
	}

	selected := make([]exportField, 0, len(wanted))
	for _, f := range exportFields {
		if wanted[f.key] {
			selected = append(selected, f)
		}
	}
	return selected, nil
}

func knownExportField(key string) bool {
	for _, f := range exportFields {
		if f.key == key {
			return true
		}
	}
	return false
}

func hasCategory(fields []exportField, category string) bool {
	for _, f := range fields {
		if f.category == category {
			return true
		}
	}
	return false
}

func buildXLSX(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheetName, cell, h)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheetName, col, col, 18)
	}
	if len(header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		f.SetCellStyle(exportSheetName, "A1", last, headerStyle)
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellStr(exportSheetName, cell, v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func registrationStatusLabel(status string) string {
	switch status {
	case model.RegistrationRegistered:
		return "已报名"
	case model.RegistrationCancelled:
		return "已取消"
	case model.RegistrationAttended:
		return "已出席"
	case model.RegistrationNoShow:
		return "缺席"
	}
	return status
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
