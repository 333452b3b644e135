package ws

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"markdownServer/backend/internal/bridge"
	"markdownServer/backend/internal/events"
)

type Conn struct {
	ws       *websocket.Conn
	hub      *Hub
	docID    uint64
	userID   uint64
	username string
	surface  Surface
	// send 是出站消息队列，writeLoop 持续消费
	send chan OutboundMessage
	// 双面文档服务
	svc bridge.Service
	// 信号量控制
	sem *events.SemaphoreControl
}

func NewConn(ws *websocket.Conn, hub *Hub, userID uint64, username string, svc bridge.Service, sem *events.SemaphoreControl) *Conn {
	return &Conn{
		ws:       ws,
		hub:      hub,
		userID:   userID,
		username: username,
		surface:  SurfaceRich,
		send:     make(chan OutboundMessage, 32),
		svc:      svc,
		sem:      sem,
	}
}

func (c *Conn) SendMessage_Enqueue(msg OutboundMessage) {
	select {
	case c.send <- msg:
	default:
		// 队列满了就丢弃，慢消费端不拖垮广播
	}
}

// 富文本面提交 Delta：转换出 markdown 落库，推给纯文本面
func (c *Conn) handleDeltaUpdate(ctx context.Context, msg ClientMessage) {
	submitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	if err := c.sem.Acquire(submitCtx); err != nil {
		c.SendMessage_Enqueue(ServerMessage{Type: "error", Content: err.Error()})
		return
	}
	defer c.sem.Release()

	md, rev, err := c.svc.SubmitDelta(submitCtx, msg.DocID, c.userID, msg.Ops)
	if err != nil {
		c.SendMessage_Enqueue(ServerMessage{Type: "error", Content: err.Error()})
		return
	}
	c.SendMessage_Enqueue(ServerMessage{Type: "saved", DocID: msg.DocID, Revision: rev})
	c.hub.BroadcastToSurface(msg.DocID, SurfacePlain, c,
		ServerMessage{Type: "markdown_applied", DocID: msg.DocID, UserID: c.userID, Revision: rev, Content: md})
}

// 纯文本面提交 markdown：解析出 Delta 落库，推给富文本面
func (c *Conn) handleMarkdownUpdate(ctx context.Context, msg ClientMessage) {
	submitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	if err := c.sem.Acquire(submitCtx); err != nil {
		c.SendMessage_Enqueue(ServerMessage{Type: "error", Content: err.Error()})
		return
	}
	defer c.sem.Release()

	ops, rev, err := c.svc.SubmitMarkdown(submitCtx, msg.DocID, c.userID, msg.Content)
	if err != nil {
		c.SendMessage_Enqueue(ServerMessage{Type: "error", Content: err.Error()})
		return
	}
	c.SendMessage_Enqueue(ServerMessage{Type: "saved", DocID: msg.DocID, Revision: rev})
	c.hub.BroadcastToSurface(msg.DocID, SurfaceRich, c,
		ServerMessage{Type: "delta_applied", DocID: msg.DocID, UserID: c.userID, Revision: rev, Ops: ops})
}

func (c *Conn) readLoop(ctx context.Context) {
	defer close(c.send)
	defer func() {
		if c.docID != 0 {
			c.hub.Leave(c.docID, c)
		}
	}()
	for {
		var clientMessage ClientMessage
		if err := c.ws.ReadJSON(&clientMessage); err != nil {
			log.Printf("read json error (user=%d, doc=%d): %v", c.userID, c.docID, err)
			return
		}
		switch clientMessage.Type {
		case "join":
			docID := clientMessage.DocID
			if docID == 0 && clientMessage.DocTitle != "" {
				id, err := c.svc.GetDocumentID(ctx, clientMessage.DocTitle)
				if err != nil {
					c.send <- ServerMessage{Type: "error", Content: "GET_DOCID_FAILED"}
					continue
				}
				docID = id
			}
			if docID == 0 {
				c.send <- ServerMessage{Type: "error", Content: "MISSING_DOC_ID"}
				continue
			}
			surface := c.surface
			if clientMessage.Surface != "" {
				surface = clientMessage.Surface
			}
			// 允许动态切换房间，先离开旧的
			if c.docID != 0 && c.docID != docID {
				c.hub.Leave(c.docID, c)
			}
			c.docID = docID
			// surface 由 Join 在 hub 锁内写入
			c.hub.Join(docID, c, surface)
			c.send <- ServerMessage{Type: "join", DocID: docID}

		case "createDocument":
			doc, err := c.svc.CreateDocument(ctx, c.userID, clientMessage.DocTitle)
			if err != nil {
				log.Printf("create document error: %v", err)
				c.send <- ServerMessage{Type: "error", Content: "CREATE_DOC_FAILED"}
				continue
			}
			c.send <- ServerMessage{Type: "createDocument", DocID: doc.ID}

		case "delta_update":
			c.handleDeltaUpdate(ctx, clientMessage)

		case "markdown_update":
			c.handleMarkdownUpdate(ctx, clientMessage)

		case "load":
			doc, err := c.svc.GetDocument(ctx, clientMessage.DocID)
			if err != nil || doc == nil {
				c.send <- ServerMessage{Type: "error", Content: "LOAD_FAILED"}
				continue
			}
			// 两个面各取所需：纯文本面用 Content，富文本面自己解 DeltaJSON
			if c.surface == SurfacePlain {
				c.send <- ServerMessage{Type: "load", DocID: doc.ID, Revision: doc.Revision, Content: doc.Markdown}
			} else {
				c.send <- ServerMessage{Type: "load", DocID: doc.ID, Revision: doc.Revision, Content: doc.DeltaJSON}
			}

		default:
			// 忽略未知类型，回一条提示
			c.send <- ServerMessage{Type: "ignored", Content: "Unknown message type"}
		}
	}
}

func (c *Conn) writeLoop() {
	// 持续消费通道中的出站消息
	for msg := range c.send {
		_ = c.ws.WriteJSON(msg)
	}
}
