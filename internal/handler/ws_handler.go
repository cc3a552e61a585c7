package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/websocket"
	"github.com/yourusername/mastery-api/pkg/auth"
)

// WSHandler подключает преподавателей к ленте прогресса студентов
type WSHandler struct {
	hub        *websocket.Hub
	jwtService *auth.JWTService
	clientCfg  websocket.ClientConfig
	upgrader   gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins совпадает со списком CORS; пустой Origin (не браузер) разрешён всегда.
func NewWSHandler(hub *websocket.Hub, jwtService *auth.JWTService, clientCfg websocket.ClientConfig, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		clientCfg:  clientCfg,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
				return false
			},
		},
	}
}

// HandleConnection обрабатывает входящее WebSocket соединение (?ticket=...)
func (h *WSHandler) HandleConnection(c *gin.Context) {
	// НЕ логируем тикет - это секретные данные аутентификации
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication ticket parameter"})
		return
	}

	claims, err := h.jwtService.ParseWSTicket(ticket)
	if err != nil {
		log.Printf("WebSocket: Invalid or expired ticket - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
		return
	}
	if claims.Role != entity.RoleInstructor {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied. Instructors only."})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ с ошибкой
		log.Printf("WebSocket: error upgrading connection: %v", err)
		return
	}

	log.Printf("WebSocket: Connection upgraded for UserID: %d", claims.UserID)
	client := websocket.NewClient(h.hub, conn, fmt.Sprintf("%d", claims.UserID), claims.Role, h.clientCfg)
	client.StartPumps()
}
