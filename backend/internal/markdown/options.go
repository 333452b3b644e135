package markdown

// 有序列表的编号风格
type OrderedListStyle string

const (
	// 递增编号 1. 2. 3.（默认）
	OrderedIncrement OrderedListStyle = "increment"
	// 固定写 1. ，交给渲染端自己编号
	OrderedOne OrderedListStyle = "one"
)

const (
	DefaultFence      = "```"
	DefaultIndentSize = 2
)

type SerializeOptions struct {
	Fence            string
	OrderedListStyle OrderedListStyle
	Embeds           EmbedMapper
	// Strict 为 true 时先跑 delta.Validate，违规直接返回 *delta.CanonicalViolation
	Strict bool
}

type ParseOptions struct {
	Fence string
	// 每层列表缩进对应的空格数
	IndentSize int
}

func (o SerializeOptions) withDefaults() SerializeOptions {
	if o.Fence == "" {
		o.Fence = DefaultFence
	}
	if o.OrderedListStyle == "" {
		o.OrderedListStyle = OrderedIncrement
	}
	if o.Embeds == nil {
		o.Embeds = defaultEmbeds{}
	}
	return o
}

func (o ParseOptions) withDefaults() ParseOptions {
	if o.Fence == "" {
		o.Fence = DefaultFence
	}
	if o.IndentSize <= 0 {
		o.IndentSize = DefaultIndentSize
	}
	return o
}
