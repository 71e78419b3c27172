package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/Meldroq8/trivia-game-sub006/internal/middleware"
	ws "github.com/Meldroq8/trivia-game-sub006/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS для WebSocket контролируется на уровне роутера
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler устанавливает WebSocket-соединения для уведомлений ротации
type WSHandler struct {
	hub *ws.Hub
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleConnection апгрейдит соединение и подписывает клиента на события
// его аккаунта (в частности rotation:cycle_complete)
// GET /ws?token=...
func (h *WSHandler) HandleConnection(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Не удалось установить WebSocket-соединение для аккаунта %s: %v", accountID, err)
		return
	}

	ws.NewClient(h.hub, conn, accountID).Run()
}
