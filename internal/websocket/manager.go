package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourusername/mastery-api/internal/config"
	"github.com/yourusername/mastery-api/internal/domain/entity"
)

// ProgressUpdate - данные события PROGRESS_UPDATE
type ProgressUpdate struct {
	StudentID         uint      `json:"studentId"`
	TopicID           uint      `json:"topicId"`
	IsCorrect         bool      `json:"isCorrect"`
	CurrentDifficulty int       `json:"currentDifficulty"`
	MasteryLevel      int       `json:"masteryLevel"`
	Streak            int       `json:"streak"`
	QuizOver          bool      `json:"quizOver"`
	At                time.Time `json:"at"`
}

// Manager рассылает события прогресса подключенным преподавателям.
// В кластерном режиме события уходят в Redis и доставляются остальным экземплярам.
type Manager struct {
	hub        *Hub
	provider   PubSubProvider
	cluster    config.ClusterConfig
	instanceID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager создает менеджер. provider может быть nil, если кластерный режим отключен.
func NewManager(hub *Hub, provider PubSubProvider, cluster config.ClusterConfig) *Manager {
	if provider == nil {
		provider = &NoOpPubSub{}
	}
	instanceID := cluster.InstanceID
	if instanceID == "" {
		instanceID = generateInstanceID()
		if cluster.Enabled {
			log.Printf("[WebSocketManager] Instance ID не задан, сгенерирован: %s", instanceID)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		hub:        hub,
		provider:   provider,
		cluster:    cluster,
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// InstanceID возвращает ID этого экземпляра
func (m *Manager) InstanceID() string {
	return m.instanceID
}

// Start подписывается на кластерный канал. В одиночном режиме ничего не делает.
func (m *Manager) Start() error {
	if !m.cluster.Enabled {
		return nil
	}

	msgCh, err := m.provider.Subscribe(m.ctx, m.cluster.BroadcastChannel)
	if err != nil {
		return fmt.Errorf("subscribe to cluster channel: %w", err)
	}
	log.Printf("[WebSocketManager] Кластерный режим, экземпляр %s, канал %s", m.instanceID, m.cluster.BroadcastChannel)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for data := range msgCh {
			m.handleClusterMessage(data)
		}
	}()
	return nil
}

// Stop прекращает обработку кластерных сообщений
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	if err := m.provider.Close(); err != nil {
		log.Printf("[WebSocketManager] Ошибка закрытия Pub/Sub: %v", err)
	}
}

// NotifyProgress рассылает событие локальным клиентам и другим экземплярам.
// Ошибки только логируются: доставка событий не влияет на результат ответа студента.
func (m *Manager) NotifyProgress(event entity.ProgressEvent) {
	payload, err := json.Marshal(Event{
		Type: PROGRESS_UPDATE,
		Data: ProgressUpdate{
			StudentID:         event.StudentID,
			TopicID:           event.TopicID,
			IsCorrect:         event.IsCorrect,
			CurrentDifficulty: event.CurrentDifficulty,
			MasteryLevel:      event.MasteryLevel,
			Streak:            event.Streak,
			QuizOver:          event.QuizOver,
			At:                event.At,
		},
	})
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка сериализации события прогресса: %v", err)
		return
	}

	m.hub.BroadcastBytesLocal(payload)

	if !m.cluster.Enabled {
		return
	}
	msg, err := json.Marshal(ClusterMessage{InstanceID: m.instanceID, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка сериализации кластерного сообщения: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, 2*time.Second)
	defer cancel()
	if err := m.provider.Publish(ctx, m.cluster.BroadcastChannel, msg); err != nil {
		log.Printf("[WebSocketManager] Не удалось опубликовать событие в кластер: %v", err)
	}
}

func (m *Manager) handleClusterMessage(data []byte) {
	var msg ClusterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[WebSocketManager] Некорректное кластерное сообщение: %v", err)
		return
	}
	// Собственные сообщения уже разосланы локально
	if msg.InstanceID == m.instanceID {
		return
	}
	m.hub.BroadcastBytesLocal(msg.Payload)
}

// GetMetrics возвращает метрики WebSocket-подсистемы
func (m *Manager) GetMetrics() map[string]interface{} {
	metrics := m.hub.GetMetrics()
	metrics["instance_id"] = m.instanceID
	metrics["cluster_enabled"] = m.cluster.Enabled
	return metrics
}
