package websocket

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yourusername/mastery-api/internal/config"
)

// ClientConfig содержит настройки соединения клиента
type ClientConfig struct {
	// BufferSize определяет размер буфера канала отправки сообщений
	BufferSize int
	// PongWait определяет время ожидания pong-ответа
	PongWait time.Duration
	// PingInterval определяет интервал между ping-сообщениями
	PingInterval time.Duration
	// WriteWait определяет тайм-аут для записи сообщений
	WriteWait time.Duration
	// MaxMessageSize определяет максимальный размер входящего сообщения
	MaxMessageSize int64
}

// DefaultClientConfig возвращает конфигурацию клиента по умолчанию
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BufferSize:     64,
		PongWait:       60 * time.Second,
		PingInterval:   54 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 512,
	}
}

// ClientConfigFromLimits строит конфигурацию клиента из настроек приложения
func ClientConfigFromLimits(limits config.LimitsConfig) ClientConfig {
	cfg := DefaultClientConfig()
	if limits.ClientSendBuffer > 0 {
		cfg.BufferSize = limits.ClientSendBuffer
	}
	if limits.PongWait > 0 {
		cfg.PongWait = time.Duration(limits.PongWait) * time.Second
		cfg.PingInterval = (cfg.PongWait * 9) / 10
	}
	if limits.WriteWait > 0 {
		cfg.WriteWait = time.Duration(limits.WriteWait) * time.Second
	}
	if limits.MaxMessageSize > 0 {
		cfg.MaxMessageSize = int64(limits.MaxMessageSize)
	}
	return cfg
}

// Client является посредником между WebSocket соединением и хабом.
type Client struct {
	UserID       string
	Role         string
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn
	cfg  ClientConfig

	send       chan []byte
	sendClosed atomic.Bool

	bufferWarningCount int32
	bufferWarningMutex sync.Mutex
}

// NewClient создает нового клиента
func NewClient(hub *Hub, conn *websocket.Conn, userID, role string, cfg ClientConfig) *Client {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultClientConfig().BufferSize
	}
	return &Client{
		UserID:       userID,
		Role:         role,
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		cfg:          cfg,
		send:         make(chan []byte, cfg.BufferSize),
	}
}

// StartPumps регистрирует клиента в хабе и запускает горутины чтения и записи
func (c *Client) StartPumps() {
	if !c.hub.Register(c) {
		log.Printf("[WebSocket] Хаб остановлен, соединение %s закрыто", c.ConnectionID)
		c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump читает управляющие кадры. Клиенты только слушают события, входящие данные игнорируются.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Ошибка чтения (UserID: %s, ConnID: %s): %v", c.UserID, c.ConnectionID, err)
			}
			return
		}
		c.resetBufferWarningCount()
	}
}

// writePump отправляет сообщения клиенту из канала send и поддерживает соединение ping-ами
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WebSocket] Ошибка записи (UserID: %s, ConnID: %s): %v", c.UserID, c.ConnectionID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) incrementBufferWarningCount() int32 {
	c.bufferWarningMutex.Lock()
	defer c.bufferWarningMutex.Unlock()
	c.bufferWarningCount++
	return c.bufferWarningCount
}

func (c *Client) resetBufferWarningCount() {
	c.bufferWarningMutex.Lock()
	defer c.bufferWarningMutex.Unlock()
	c.bufferWarningCount = 0
}

// CloseSend закрывает канал send ровно один раз.
// Возвращает true, если канал был закрыт этим вызовом.
func (c *Client) CloseSend() bool {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
		return true
	}
	return false
}
