package websocket

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения (канал только на отправку,
	// от клиента ожидаются лишь служебные фреймы)
	maxMessageSize = 512

	// Размер буфера канала отправки сообщений клиенту
	clientBufferSize = 32
)

// Client является посредником между WebSocket соединением и hub
type Client struct {
	// AccountID — аккаунт, которому принадлежит соединение
	AccountID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient создает клиента поверх установленного соединения
func NewClient(hub *Hub, conn *websocket.Conn, accountID string) *Client {
	return &Client{
		AccountID: accountID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, clientBufferSize),
	}
}

// Run регистрирует клиента и запускает насосы чтения и записи
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// readPump вычитывает входящие фреймы ради обработки pong/close.
// Содержимое сообщений от клиента игнорируется: канал односторонний.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Client] Соединение аккаунта %s закрыто с ошибкой: %v", c.AccountID, err)
			}
			return
		}
	}
}

// writePump отправляет клиенту события из канала и периодические ping'и
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Ошибка записи для аккаунта %s: %v", c.AccountID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
