package markdown

import "markdownServer/backend/internal/delta"

// EmbedMapper 把嵌入对象渲染成一段 markdown 文本，整体追加进当前行
type EmbedMapper interface {
	MarkdownFor(e delta.Embed) string
}

// 默认映射：image/video/custom-uri 三种已知类型，未知类型输出空串
type defaultEmbeds struct{}

func (defaultEmbeds) MarkdownFor(e delta.Embed) string {
	switch e.Kind {
	case delta.EmbedImage:
		return "![](" + encodeLinkURL(e.Source) + ")"
	case delta.EmbedVideo:
		return "[](" + encodeLinkURL(e.Source) + ")"
	case delta.EmbedCustomURI:
		return e.Source
	}
	return ""
}
