package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/handler/helper"
	"github.com/yourusername/mastery-api/internal/middleware"
	"github.com/yourusername/mastery-api/internal/service"
)

// AnalyticsHandler отдаёт отчёты по прогрессу студентов
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
	catalog          service.TopicLister
}

// NewAnalyticsHandler создает новый обработчик отчётов
func NewAnalyticsHandler(analyticsService *service.AnalyticsService, catalog service.TopicLister) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, catalog: catalog}
}

// Overview возвращает таблицу уровней всех студентов по всем темам
// GET /api/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	rows, err := h.analyticsService.Overview(c.Request.Context())
	if err != nil {
		helper.RespondError(c, "AnalyticsHandler", err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// ExportOverview выгружает сводную таблицу в XLSX или CSV
// GET /api/analytics/overview/export?format=xlsx|csv
func (h *AnalyticsHandler) ExportOverview(c *gin.Context) {
	format := c.DefaultQuery("format", "xlsx")
	if format != "xlsx" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Use 'csv' or 'xlsx'", "error_type": "bad_request"})
		return
	}

	topics, err := h.catalog.ListOrdered(c.Request.Context())
	if err != nil {
		helper.RespondError(c, "AnalyticsHandler", err)
		return
	}
	rows, err := h.analyticsService.Overview(c.Request.Context())
	if err != nil {
		helper.RespondError(c, "AnalyticsHandler", err)
		return
	}

	filename := fmt.Sprintf("mastery_overview_%s", time.Now().Format("2006-01-02"))
	if format == "csv" {
		exportOverviewCSV(c, topics, rows, filename)
	} else {
		exportOverviewXLSX(c, topics, rows, filename)
	}
}

// StudentProgress возвращает уровни текущего студента по темам
// GET /api/analytics/student-progress
func (h *AnalyticsHandler) StudentProgress(c *gin.Context) {
	studentID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return
	}

	list, err := h.analyticsService.StudentProgress(c.Request.Context(), studentID)
	if err != nil {
		helper.RespondError(c, "AnalyticsHandler", err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func overviewHeaders(topics []entity.Topic) []string {
	headers := []string{"Студент"}
	for _, t := range topics {
		headers = append(headers, sanitizeForExcel(t.Name))
	}
	return headers
}

func exportOverviewCSV(c *gin.Context, topics []entity.Topic, rows []service.StudentOverview, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(overviewHeaders(topics))
	for _, r := range rows {
		record := []string{sanitizeForExcel(r.Username)}
		for _, m := range r.Topics {
			record = append(record, strconv.Itoa(m.Mastery))
		}
		writer.Write(record)
	}
}

// exportOverviewXLSX использует StreamWriter, чтобы не держать в памяти большие таблицы
func exportOverviewXLSX(c *gin.Context, topics []entity.Topic, rows []service.StudentOverview, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Прогресс"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[AnalyticsHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := overviewHeaders(topics)
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		log.Printf("[AnalyticsHandler] Ошибка записи заголовков: %v", err)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{sanitizeForExcel(r.Username)}
		for _, m := range r.Topics {
			row = append(row, m.Mastery)
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[AnalyticsHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[AnalyticsHandler] Ошибка при Flush: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AnalyticsHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
