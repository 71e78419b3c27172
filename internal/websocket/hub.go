package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Meldroq8/trivia-game-sub006/internal/domain/entity"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub держит активные подключения, сгруппированные по аккаунтам,
// и доставляет события движка ротации клиентам нужного аккаунта.
// Реализует rotation.Notifier.
type Hub struct {
	mu sync.RWMutex
	// clients — подключения по аккаунтам: один аккаунт может держать
	// несколько соединений (несколько устройств/вкладок)
	clients map[string]map[*Client]bool
}

// NewHub создает новый hub уведомлений
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
	}
}

// Register добавляет подключение клиента
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.AccountID] == nil {
		h.clients[client.AccountID] = make(map[*Client]bool)
	}
	h.clients[client.AccountID][client] = true
	log.Printf("[Hub] Клиент аккаунта %s подключен (всего соединений: %d)", client.AccountID, len(h.clients[client.AccountID]))
}

// Unregister удаляет подключение клиента и закрывает его канал отправки
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.AccountID]; ok {
		if _, registered := conns[client]; registered {
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(h.clients, client.AccountID)
			}
		}
	}
}

// SendEventToAccount доставляет событие всем соединениям аккаунта.
// Переполненные клиентские буферы пропускаются: сигнал не критичный,
// медленный клиент не должен блокировать движок.
func (h *Hub) SendEventToAccount(accountID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("[Hub] Не удалось сериализовать событие %s: %v", eventType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[accountID] {
		select {
		case client.send <- payload:
		default:
			log.Printf("[Hub] Буфер клиента аккаунта %s переполнен, событие %s пропущено", accountID, eventType)
		}
	}
}

// NotifyCycleComplete реализует rotation.Notifier: уведомляет клиентов
// аккаунта о завершении цикла ротации и сбросе счетчиков
func (h *Hub) NotifyCycleComplete(accountID string, stats entity.UsageStats) {
	log.Printf("[Hub] Аккаунт %s: отправляю уведомление о завершении цикла", accountID)
	h.SendEventToAccount(accountID, "rotation:cycle_complete", stats)
}
