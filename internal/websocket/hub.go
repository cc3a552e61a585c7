package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// Максимальное количество предупреждений о переполнении буфера до отключения
const maxBufferWarnings = 3

// Hub хранит подключения преподавателей этого экземпляра и рассылает им события.
// Регистрация, отключение и рассылка обрабатываются последовательно в Run.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once

	clientCount  atomic.Int64
	messagesSent atomic.Int64
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run обрабатывает события хаба до вызова Stop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case message := <-h.broadcast:
			h.handleBroadcast(message)
		case <-h.done:
			log.Printf("[Hub] Получен сигнал завершения работы, отключаем %d клиентов", len(h.clients))
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop останавливает хаб и закрывает все соединения
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register добавляет клиента. Возвращает false, если хаб уже остановлен.
func (h *Hub) Register(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента и закрывает его канал отправки
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastBytesLocal ставит сообщение в очередь рассылки клиентам этого экземпляра
func (h *Hub) BroadcastBytesLocal(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		log.Printf("[Hub] Очередь рассылки переполнена, сообщение отброшено")
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// GetMetrics возвращает метрики хаба
func (h *Hub) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"active_connections": h.clientCount.Load(),
		"messages_sent":      h.messagesSent.Load(),
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = true
	h.clientCount.Add(1)
	log.Printf("[Hub] Клиент %s (Conn: %s) зарегистрирован", client.UserID, client.ConnectionID)
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	h.drop(client)
	log.Printf("[Hub] Клиент %s (Conn: %s) отключен", client.UserID, client.ConnectionID)
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.clientCount.Add(-1)
	if client.conn != nil {
		client.conn.Close()
	}
	client.CloseSend()
}

func (h *Hub) handleBroadcast(message []byte) {
	sent := 0
	for client := range h.clients {
		select {
		case client.send <- message:
			client.resetBufferWarningCount()
			sent++
		default:
			newCount := client.incrementBufferWarningCount()
			if newCount >= maxBufferWarnings {
				log.Printf("[Hub] Клиент %s (Conn: %s) превысил лимит предупреждений (%d), отключаем",
					client.UserID, client.ConnectionID, maxBufferWarnings)
				h.drop(client)
				continue
			}
			log.Printf("[Hub] Буфер клиента %s переполнен, предупреждение %d/%d", client.UserID, newCount, maxBufferWarnings)
			warning, _ := json.Marshal(Event{
				Type: BUFFER_WARNING,
				Data: map[string]interface{}{
					"warning_count": newCount,
					"max_warnings":  maxBufferWarnings,
				},
			})
			select {
			case client.send <- warning:
			default:
			}
		}
	}
	h.messagesSent.Add(int64(sent))
}
