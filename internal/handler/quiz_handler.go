package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mastery-api/internal/handler/dto"
	"github.com/yourusername/mastery-api/internal/handler/helper"
	"github.com/yourusername/mastery-api/internal/middleware"
	"github.com/yourusername/mastery-api/internal/service"
)

// QuizHandler обрабатывает прохождение адаптивного теста студентом
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик теста
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// StartQuiz возвращает вопрос по первой неосвоенной теме
// GET /api/quiz/start
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	studentID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return
	}

	res, err := h.quizService.StartQuiz(c.Request.Context(), studentID)
	if err != nil {
		helper.RespondError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewStartQuizResponse(res))
}

// SubmitAnswer проверяет ответ и возвращает следующий вопрос
// POST /api/quiz/submit
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	studentID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return
	}

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.RespondBadRequest(c, err)
		return
	}

	res, err := h.quizService.SubmitAnswer(c.Request.Context(), studentID, req.QuestionID, *req.AnswerIndex)
	if err != nil {
		helper.RespondError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubmitAnswerResponse(res))
}
