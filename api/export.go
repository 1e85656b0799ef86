package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"expensetracker/analytics"
	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	expenseSheet  = "消费记录"
	categorySheet = "类别汇总"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// exportWindow 解析 start_time、end_time，结束日期包含当天
func exportWindow(c *gin.Context) (analytics.Window, bool) {
	startTimeStr := c.Query("start_time")
	endTimeStr := c.Query("end_time")

	if startTimeStr == "" || endTimeStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return analytics.Window{}, false
	}

	startTime, err := time.ParseInLocation("2006-01-02", startTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "开始时间格式错误，应为: 2006-01-02")
		return analytics.Window{}, false
	}

	endTime, err := time.ParseInLocation("2006-01-02", endTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "结束时间格式错误，应为: 2006-01-02")
		return analytics.Window{}, false
	}
	endTime = endTime.Add(24*time.Hour - time.Second)

	if endTime.Before(startTime) {
		BadRequest(c, "结束时间不能早于开始时间")
		return analytics.Window{}, false
	}
	return analytics.Window{Start: startTime, End: endTime}, true
}

func exportFilename(w analytics.Window, ext string) string {
	return fmt.Sprintf("expenses_%s_%s.%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), ext)
}

// ExportCSV 导出消费记录为 CSV
// @Summary 导出消费记录
// @Description 根据时间范围导出消费记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	w, ok := exportWindow(c)
	if !ok {
		return
	}

	expenses, err := repository.NewExpenseRepository(database.DB).ListInRange(c.Request.Context(), userID, w)
	if err != nil {
		serverError(c, err, "查询数据失败")
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	rows := [][]string{{"ID", "金额", "类别", "描述", "消费时间", "创建时间"}}
	for _, expense := range expenses {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(expense.ID), 10),
			expense.Amount.StringFixed(models.MoneyPlaces),
			expense.Category,
			expense.Description,
			expense.ExpenseTime.Format("2006-01-02 15:04:05"),
			expense.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	if err := writer.WriteAll(rows); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(w, "csv")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSONResult JSON 导出结果
type ExportJSONResult struct {
	StartTime   string           `json:"start_time" example:"2024-01-01"`
	EndTime     string           `json:"end_time" example:"2024-01-31"`
	TotalCount  int              `json:"total_count" example:"12"`
	TotalAmount decimal.Decimal  `json:"total_amount" swaggertype:"number" example:"523.74"`
	Expenses    []models.Expense `json:"expenses"`
}

// ExportJSON 导出消费记录为 JSON
// @Summary 导出消费记录为 JSON
// @Description 根据时间范围导出消费记录为 JSON 格式，附带合计
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {object} Response{data=ExportJSONResult} "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	w, ok := exportWindow(c)
	if !ok {
		return
	}

	expenses, err := repository.NewExpenseRepository(database.DB).ListInRange(c.Request.Context(), userID, w)
	if err != nil {
		serverError(c, err, "查询数据失败")
		return
	}

	total := decimal.Zero
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
	}

	Success(c, ExportJSONResult{
		StartTime:   w.Start.Format("2006-01-02"),
		EndTime:     w.End.Format("2006-01-02"),
		TotalCount:  len(expenses),
		TotalAmount: total,
		Expenses:    expenses,
	})
}

// ExportExcel 导出消费记录为 Excel
// @Summary 导出消费记录为 Excel
// @Description 生成包含“消费记录”和“类别汇总”两个工作表的 xlsx 文件
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	w, ok := exportWindow(c)
	if !ok {
		return
	}

	repo := repository.NewExpenseRepository(database.DB)
	expenses, err := repo.ListInRange(c.Request.Context(), userID, w)
	if err != nil {
		serverError(c, err, "查询数据失败")
		return
	}
	breakdown, err := analytics.NewEngine(repo).CategoryBreakdown(c.Request.Context(), userID, w)
	if err != nil {
		serverError(c, err, "查询数据失败")
		return
	}

	f, err := buildWorkbook(expenses, breakdown)
	if err != nil {
		serverError(c, err, "生成 Excel 失败")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(w, "xlsx")))
	if err := f.Write(c.Writer); err != nil {
		serverError(c, err, "生成 Excel 失败")
		return
	}
}

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

// buildWorkbook 生成工作簿：消费明细 + 类别汇总
func buildWorkbook(expenses []models.Expense, breakdown []models.CategoryBreakdown) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", expenseSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(categorySheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: cellBorder,
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	writeRow := func(sheet string, row int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}
	styleRow := func(sheet string, row, cols, style int) error {
		from, _ := excelize.CoordinatesToCellName(1, row)
		to, _ := excelize.CoordinatesToCellName(cols, row)
		return f.SetCellStyle(sheet, from, to, style)
	}

	// 明细
	f.SetColWidth(expenseSheet, "A", "A", 10)
	f.SetColWidth(expenseSheet, "B", "C", 18)
	f.SetColWidth(expenseSheet, "D", "D", 40)
	f.SetColWidth(expenseSheet, "E", "E", 20)
	if err := writeRow(expenseSheet, 1, []interface{}{"ID", "金额", "类别", "描述", "消费时间"}); err != nil {
		f.Close()
		return nil, err
	}
	styleRow(expenseSheet, 1, 5, headerStyle)

	total := decimal.Zero
	for i, e := range expenses {
		total = total.Add(e.Amount)
		if err := writeRow(expenseSheet, i+2, []interface{}{
			e.ID, e.Amount.InexactFloat64(), e.Category, e.Description, e.ExpenseTime.Format("2006-01-02 15:04:05"),
		}); err != nil {
			f.Close()
			return nil, err
		}
	}
	summaryRow := len(expenses) + 2
	writeRow(expenseSheet, summaryRow, []interface{}{"合计", total.InexactFloat64(), fmt.Sprintf("共 %d 条记录", len(expenses))})
	styleRow(expenseSheet, summaryRow, 5, summaryStyle)

	// 类别汇总
	f.SetColWidth(categorySheet, "A", "A", 20)
	f.SetColWidth(categorySheet, "B", "D", 14)
	if err := writeRow(categorySheet, 1, []interface{}{"类别", "金额", "笔数", "平均"}); err != nil {
		f.Close()
		return nil, err
	}
	styleRow(categorySheet, 1, 4, headerStyle)
	for i, b := range breakdown {
		if err := writeRow(categorySheet, i+2, []interface{}{
			b.Category, b.Total.InexactFloat64(), b.Count, b.Average.InexactFloat64(),
		}); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}
