package events

import (
	"time"

	"markdownServer/backend/internal/delta"
)

// DocConvertedEvent：文档某一面被保存、另一面被转换落库后发出的事件，
// 供搜索索引、通知等下游消费。
type DocConvertedEvent struct {
	EventType string `json:"eventType"` // 固定 "DOC_CONVERTED"
	DocID     uint64 `json:"docId"`
	Revision  uint64 `json:"revision"`
	AuthorID  uint64 `json:"authorId"`
	// 本次提交来自哪个编辑面："delta" / "markdown"
	Source   string      `json:"source"`
	Ops      delta.Delta `json:"ops"`
	Markdown string      `json:"markdown"`
	SavedAt  time.Time   `json:"savedAt"`
}
