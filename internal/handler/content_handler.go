package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mastery-api/internal/handler/dto"
	"github.com/yourusername/mastery-api/internal/handler/helper"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
	"github.com/yourusername/mastery-api/internal/service"
)

// Максимальный размер загружаемого файла с вопросами
const maxImportFileSize = 10 << 20

// ContentHandler управляет темами и вопросами
type ContentHandler struct {
	contentService *service.ContentService
}

// NewContentHandler создает новый обработчик контента
func NewContentHandler(contentService *service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// CreateTopic создает тему
// POST /api/content/topic
func (h *ContentHandler) CreateTopic(c *gin.Context) {
	var req dto.CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.RespondBadRequest(c, err)
		return
	}

	topic, err := h.contentService.CreateTopic(c.Request.Context(), req.Name, req.Subject, req.Order)
	if err != nil {
		helper.RespondError(c, "ContentHandler", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTopicResponse(topic))
}

// ListTopics возвращает темы в порядке прохождения
// GET /api/content/topics
func (h *ContentHandler) ListTopics(c *gin.Context) {
	topics, err := h.contentService.ListTopics(c.Request.Context())
	if err != nil {
		helper.RespondError(c, "ContentHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTopicListResponse(topics))
}

// CreateQuestion добавляет вопрос в тему
// POST /api/content/question
func (h *ContentHandler) CreateQuestion(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.RespondBadRequest(c, err)
		return
	}

	question, err := h.contentService.CreateQuestion(c.Request.Context(), req.ToQuestionInput())
	if err != nil {
		helper.RespondError(c, "ContentHandler", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuestionDetailResponse(question))
}

// ListQuestions возвращает вопросы темы с ответами
// GET /api/content/questions/:topicId
func (h *ContentHandler) ListQuestions(c *gin.Context) {
	topicID := c.MustGet("topicID").(uint)

	questions, err := h.contentService.ListQuestions(c.Request.Context(), topicID)
	if err != nil {
		helper.RespondError(c, "ContentHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuestionDetailListResponse(questions))
}

// ImportQuestions загружает вопросы из XLSX-файла (поле формы "file")
// POST /api/content/questions/import
func (h *ContentHandler) ImportQuestions(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportFileSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		helper.RespondBadRequest(c, fmt.Errorf("multipart field 'file' is required: %w", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		helper.RespondBadRequest(c, err)
		return
	}
	defer file.Close()

	rows, err := service.ParseQuestionsXLSX(file)
	if err != nil {
		helper.RespondError(c, "ContentHandler", err)
		return
	}
	if len(rows) == 0 {
		helper.RespondError(c, "ContentHandler", fmt.Errorf("%w: file contains no questions", apperrors.ErrValidation))
		return
	}

	imported, err := h.contentService.ImportQuestions(c.Request.Context(), rows)
	if err != nil {
		helper.RespondError(c, "ContentHandler", err)
		return
	}

	c.JSON(http.StatusCreated, dto.ImportResponse{Imported: imported})
}
