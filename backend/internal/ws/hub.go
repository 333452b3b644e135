package ws

import "sync"

type Hub struct {
	// 读写锁保护 rooms，加入/离开房间、广播时都会先加锁
	mu sync.RWMutex
	// docID -> set of connections
	rooms map[uint64]map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint64]map[*Conn]struct{})}
}

// Join 将连接以指定编辑面加入文档房间。
// surface 的写入放在 hub 锁内：BroadcastToSurface 在读锁下读它，
// 读写都过同一把锁才有先后关系
func (h *Hub) Join(docID uint64, c *Conn, surface Surface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.surface = surface
	if h.rooms[docID] == nil {
		// 房间里存的是连接不是 userID：一个用户可开多个标签页/设备，
		// 甚至同一用户两个面各开一个连接，广播要逐连接发
		h.rooms[docID] = make(map[*Conn]struct{})
	}
	h.rooms[docID][c] = struct{}{}
}

// Leave 将连接从指定文档房间移除
func (h *Hub) Leave(docID uint64, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[docID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, docID)
		}
	}
}

// BroadcastToSurface 把消息推给房间内指定编辑面的所有连接（except 除外）。
// 转换结果只发给另一面：富文本面的提交广播 markdown，反之亦然。
func (h *Hub) BroadcastToSurface(docID uint64, surface Surface, except *Conn, msg OutboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	// 入队是非阻塞的（满了丢弃），持读锁遍历不会卡住别人
	for c := range h.rooms[docID] {
		if c == except || c.surface != surface {
			continue
		}
		c.SendMessage_Enqueue(msg)
	}
}
