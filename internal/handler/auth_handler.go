package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mastery-api/internal/handler/dto"
	"github.com/yourusername/mastery-api/internal/handler/helper"
	"github.com/yourusername/mastery-api/internal/middleware"
	"github.com/yourusername/mastery-api/internal/service"
)

// AuthHandler обрабатывает регистрацию, вход и выдачу WS-тикетов
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register обрабатывает запрос на регистрацию
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.RespondBadRequest(c, err)
		return
	}

	res, err := h.authService.Register(service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	log.Printf("[AuthHandler] Пользователь ID=%d (%s, %s) зарегистрирован", res.User.ID, res.User.Username, res.User.Role)
	c.JSON(http.StatusCreated, dto.AuthResponse{Token: res.Token, User: dto.NewUserResponse(res.User)})
}

// Login обрабатывает запрос на вход
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.RespondBadRequest(c, err)
		return
	}

	res, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{Token: res.Token, User: dto.NewUserResponse(res.User)})
}

// GenerateWsTicket выдает короткоживущий тикет для подключения к WebSocket
func (h *AuthHandler) GenerateWsTicket(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return
	}

	ticket, err := h.authService.GenerateWSTicket(userID)
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"ticket": ticket,
		},
	})
}
