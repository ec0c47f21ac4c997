package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/fulfillment/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService 作业清单导出
type ExportService struct {
	jobRepo *repository.JobRepository
}

func NewExportService(jobRepo *repository.JobRepository) *ExportService {
	return &ExportService{jobRepo: jobRepo}
}

var jobExportHeaders = []string{
	"作业ID", "订单号", "制造商", "漏斗状态", "公开状态",
	"印花工艺", "需样衣", "预计出货", "创建时间",
}

// ExportJobs 导出作业清单为xlsx
// manufacturer角色只导出自己的作业；金额列仅admin/ops可见
func (s *ExportService) ExportJobs(ctx context.Context, actor entity.Actor, filters map[string]string) (*excelize.File, string, error) {
	scopeID := ""
	if !actor.IsStaff() {
		if actor.Role != entity.RoleManufacturer || actor.ManufacturerID == "" {
			return nil, "", ErrForbidden
		}
		scopeID = actor.ManufacturerID
	}

	jobs, _, err := s.jobRepo.FindAll(ctx, 1, 1000, scopeID, filters)
	if err != nil {
		return nil, "", fmt.Errorf("查询作业失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Jobs"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	headers := jobExportHeaders
	if actor.IsStaff() {
		headers = append(append([]string{}, jobExportHeaders...), "订单金额")
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, job := range jobs {
		row := rowIdx + 2
		orderNumber := ""
		var orderTotal *float64
		if job.Record != nil && job.Record.Order != nil {
			orderNumber = job.Record.Order.OrderNumber
			orderTotal = job.Record.Order.Total
		}
		manufacturerName := ""
		if job.Manufacturer != nil {
			manufacturerName = job.Manufacturer.Name
		}
		sampleRequired := "否"
		if job.SampleRequired {
			sampleRequired = "是"
		}

		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), job.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), orderNumber)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), manufacturerName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), job.FunnelStatus)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), job.PublicStatus)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), job.PrintMethod)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), sampleRequired)
		if job.ExpectedShipDate != nil {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), job.ExpectedShipDate.Format("2006-01-02"))
		}
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), job.CreatedAt.Format("2006-01-02 15:04"))
		if actor.IsStaff() && orderTotal != nil {
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), *orderTotal)
		}
	}

	filename := "manufacturer_jobs.xlsx"
	return f, filename, nil
}
