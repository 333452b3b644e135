package ws

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"markdownServer/backend/internal/bridge"
	"markdownServer/backend/internal/events"
)

// 全局的WebSocket upgrader（允许本地开发环境的来源）
var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" { // 一些环境可能不发送 Origin，或为 "null"
		return true
	}
	allowedPrefixes := []string{
		"http://localhost",
		"http://127.0.0.1",
		"https://localhost",
		"https://127.0.0.1",
	}
	for _, p := range allowedPrefixes {
		if strings.HasPrefix(origin, p) {
			return true
		}
	}
	return false
}}

type Manager struct {
	h   *Hub
	svc bridge.Service
	sem *events.SemaphoreControl
}

func NewManager(h *Hub, svc bridge.Service, sem *events.SemaphoreControl) *Manager {
	return &Manager{h: h, svc: svc, sem: sem}
}

func (m *Manager) WebSocketConnect(c *gin.Context) {
	// userId/username 由鉴权中间件写入 gin.Context
	userID := c.GetUint64("userId")
	username := c.GetString("username")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}
	defer conn.Close()

	wsConn := NewConn(conn, m.h, userID, username, m.svc, m.sem)

	// 先启动写循环，确保后续写入 send 通道的消息可以被及时发送
	go wsConn.writeLoop()
	wsConn.send <- ServerMessage{Type: "welcome", UserID: userID}

	// 最后再进入读循环（阻塞至连接关闭）
	wsConn.readLoop(c.Request.Context())
}
