package wsnotify

import (
	"net/http"
	"sync"
	"time"

	"mia-admin/internal/models"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func Upgrader() *websocket.Upgrader {
	return &upgrader
}

// Manager fans out persisted turns to the connected admin pages.
type Manager struct {
	clients map[*websocket.Conn]bool
	lock    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{clients: make(map[*websocket.Conn]bool)}
}

func (m *Manager) AddClient(conn *websocket.Conn) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.clients[conn] = true
}

func (m *Manager) RemoveClient(conn *websocket.Conn) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.clients, conn)
}

func (m *Manager) ClientCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.clients)
}

func (m *Manager) Broadcast(event interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for client := range m.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(event); err != nil {
			client.Close()
			delete(m.clients, client)
		}
	}
}

type TurnPayload struct {
	ID        string `json:"id"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Message   string `json:"message"`
	Mode      string `json:"mode"`
	SentBy    string `json:"sent_by,omitempty"`
	Timestamp string `json:"timestamp"`
}

type TurnEvent struct {
	Type    string      `json:"type"`
	Payload TurnPayload `json:"payload"`
}

// NewTurnEvent builds the "turn" event, or "transfer" when the turn moved the
// conversation to human attendance.
func NewTurnEvent(turn *models.Turn) TurnEvent {
	eventType := "turn"
	if turn.TransferredAt != nil {
		eventType = "transfer"
	}
	return TurnEvent{
		Type: eventType,
		Payload: TurnPayload{
			ID:        turn.ID.Hex(),
			Phone:     turn.Phone,
			Role:      turn.Role,
			Message:   turn.Message,
			Mode:      turn.EffectiveMode(),
			SentBy:    turn.SentBy,
			Timestamp: turn.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
}

func (m *Manager) NotifyTurn(turn *models.Turn) {
	m.Broadcast(NewTurnEvent(turn))
}
