package websocket

// Типы событий, отправляемых преподавателям
const (
	// PROGRESS_UPDATE сообщает об ответе студента и его новом состоянии по теме
	PROGRESS_UPDATE = "PROGRESS_UPDATE"

	// SERVER_ERROR сообщает клиенту об ошибке обработки его сообщения
	SERVER_ERROR = "server:error"

	// BUFFER_WARNING предупреждает медленного клиента о переполнении буфера
	BUFFER_WARNING = "server:buffer_warning"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
