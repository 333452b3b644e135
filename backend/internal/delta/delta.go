package delta

// Delta：富文本文档的操作序列表示。顺序即文档顺序。
// 规范形式（canonical）要求：
//  1. 每个换行都是单独的 {insert:"\n"} op
//  2. 块属性只出现在换行 op 上
//  3. 文本 op 内部不含换行
//  4. 行内属性只出现在非换行文本 op 上

type ListKind string

const (
	ListOrdered ListKind = "ordered"
	ListBullet  ListKind = "bullet"
)

type EmbedKind string

const (
	EmbedImage     EmbedKind = "image"
	EmbedVideo     EmbedKind = "video"
	EmbedCustomURI EmbedKind = "custom-uri"
)

// 嵌入对象：无文本内容，只有类型和来源
type Embed struct {
	Kind   EmbedKind `json:"kind"`
	Source string    `json:"source"`
}

// 块属性：只允许挂在 insert 恰好为 "\n" 的 op 上
type BlockAttributes struct {
	Header     int      `json:"header,omitempty"` // 1..6
	Blockquote bool     `json:"blockquote,omitempty"`
	List       ListKind `json:"list,omitempty"`
	Indent     int      `json:"indent,omitempty"` // 列表缩进层级，0 时省略
	CodeBlock  bool     `json:"code-block,omitempty"`
}

// 行内属性：只允许挂在非换行文本 op 上
type InlineAttributes struct {
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Strike bool   `json:"strike,omitempty"`
	Code   bool   `json:"code,omitempty"`
	Link   string `json:"link,omitempty"`
}

// Op 是 Delta 的一个元素。Embed 非空时为嵌入 op，否则为文本 op。
// 块/行内属性拆成两个字段，错挂属性由 Validate 兜底检查。
type Op struct {
	Insert string
	Embed  *Embed
	Block  *BlockAttributes
	Inline *InlineAttributes
}

type Delta []Op

func Text(s string) Op { return Op{Insert: s} }

func TextWith(s string, attrs InlineAttributes) Op {
	return Op{Insert: s, Inline: &attrs}
}

func Newline() Op { return Op{Insert: "\n"} }

func NewlineWith(attrs BlockAttributes) Op {
	return Op{Insert: "\n", Block: &attrs}
}

func EmbedOp(e Embed) Op { return Op{Embed: &e} }

// IsNewline 判断是否为独立换行 op
func (o Op) IsNewline() bool { return o.Embed == nil && o.Insert == "\n" }

func (o Op) IsEmbed() bool { return o.Embed != nil }

func (b *BlockAttributes) Empty() bool {
	return b == nil ||
		(b.Header == 0 && !b.Blockquote && b.List == "" && b.Indent == 0 && !b.CodeBlock)
}

func (a *InlineAttributes) Empty() bool {
	return a == nil ||
		(!a.Bold && !a.Italic && !a.Strike && !a.Code && a.Link == "")
}
