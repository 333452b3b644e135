package ws

import "markdownServer/backend/internal/delta"

// 编辑面：rich 是结构化富文本编辑器，plain 是纯文本 markdown 编辑器。
// 连接声明自己属于哪一面，转换结果只推给另一面。
type Surface string

const (
	SurfaceRich  Surface = "rich"
	SurfacePlain Surface = "plain"
)

type ClientMessage struct {
	Type     string      `json:"type"`
	DocID    uint64      `json:"docId,omitempty"`
	DocTitle string      `json:"docTitle,omitempty"`
	Surface  Surface     `json:"surface,omitempty"`
	Ops      delta.Delta `json:"ops,omitempty"`
	Content  string      `json:"content,omitempty"`
}

type ServerMessage struct {
	Type     string      `json:"type"`
	DocID    uint64      `json:"docId,omitempty"`
	UserID   uint64      `json:"userId,omitempty"`
	Revision uint64      `json:"revision,omitempty"`
	Ops      delta.Delta `json:"ops,omitempty"`
	Content  string      `json:"content,omitempty"`
}

// 出站消息接口
type OutboundMessage interface {
	MessageType() string
}

func (m ServerMessage) MessageType() string { return m.Type }
