package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"markdownServer/backend/internal/delta"
)

// 块状态机：Normal / 列表内 / 代码块内。状态只由换行 op 上的块属性驱动。
type blockState int

const (
	stateNormal blockState = iota
	stateList
	stateCode
)

type serializer struct {
	opts SerializeOptions
	out  strings.Builder

	// 当前行的双缓冲：rendered 是转义/包裹后的结果，raw 是原文。
	// 行属于哪种块要等到换行 op 才知道，代码块行要用 raw 原样输出。
	rendered strings.Builder
	raw      strings.Builder

	state    blockState
	listKind delta.ListKind
	ordinal  int // 有序列表计数器，新列表或种类切换时归零
}

// Serialize 把 Delta 渲染成 markdown 文本。
// Strict 模式先过规范校验，违规返回 *delta.CanonicalViolation；
// 非严格模式对残缺输入尽力输出，永不报错（nil/空 ops 得到空串）。
func Serialize(d delta.Delta, opts SerializeOptions) (string, error) {
	opts = opts.withDefaults()
	if opts.Strict {
		if err := delta.Validate(d); err != nil {
			return "", err
		}
	}
	if len(d) == 0 {
		return "", nil
	}

	s := &serializer{opts: opts}
	for _, op := range d {
		switch {
		case op.Embed != nil:
			// 嵌入整体作为一个片段追加进当前行
			frag := opts.Embeds.MarkdownFor(*op.Embed)
			s.rendered.WriteString(frag)
			s.raw.WriteString(frag)
		case op.IsNewline():
			s.endLine(op.Block)
		default:
			s.rendered.WriteString(renderText(op))
			s.raw.WriteString(op.Insert)
		}
	}
	// 宽松输入可能缺结尾换行，把残留的行内容吐出来
	if s.rendered.Len() > 0 || s.raw.Len() > 0 {
		s.endLine(nil)
	}
	if s.state == stateCode {
		s.out.WriteString(opts.Fence + "\n\n")
	}
	return postProcess(s.out.String()), nil
}

// renderText：行内属性固定优先级，由内到外。
// code 排他：忽略其他属性直接返回；其余先转义，再依次套 link、strike、bold、italic。
func renderText(op delta.Op) string {
	a := op.Inline
	if a == nil {
		return escapeText(op.Insert)
	}
	if a.Code {
		return "`" + escapeCode(op.Insert) + "`"
	}
	var out string
	if a.Link != "" {
		out = "[" + escapeLabel(op.Insert) + "](" + encodeLinkURL(a.Link) + ")"
	} else {
		out = escapeText(op.Insert)
	}
	if a.Strike {
		out = "~~" + out + "~~"
	}
	if a.Bold {
		out = "**" + out + "**"
	}
	if a.Italic {
		out = "*" + out + "*"
	}
	return out
}

func (s *serializer) endLine(b *delta.BlockAttributes) {
	rendered := s.rendered.String()
	raw := s.raw.String()
	s.rendered.Reset()
	s.raw.Reset()

	// 代码块行：按需开围栏，行内容原样输出，围栏等到第一个非代码行才闭合
	if b != nil && b.CodeBlock {
		if s.state != stateCode {
			s.closeList()
			s.out.WriteString(s.opts.Fence + "\n")
			s.state = stateCode
		}
		s.out.WriteString(raw + "\n")
		return
	}
	if s.state == stateCode {
		s.out.WriteString(s.opts.Fence + "\n\n")
		s.state = stateNormal
	}

	switch {
	case b != nil && b.List != "":
		if s.state != stateList || s.listKind != b.List {
			// 种类切换先用空行结束旧列表，计数器归零
			if s.state == stateList {
				s.out.WriteString("\n")
			}
			s.state = stateList
			s.listKind = b.List
			s.ordinal = 0
		}
		s.ordinal++
		indent := b.Indent
		if indent < 0 {
			indent = 0
		}
		prefix := strings.Repeat("  ", indent)
		if b.List == delta.ListOrdered {
			if s.opts.OrderedListStyle == OrderedOne {
				prefix += "1. "
			} else {
				prefix += strconv.Itoa(s.ordinal) + ". "
			}
		} else {
			prefix += "- "
		}
		s.out.WriteString(prefix + rendered + "\n")

	case b != nil && b.Blockquote:
		s.leaveList()
		if rendered == "" {
			s.out.WriteString(">\n")
		} else {
			s.out.WriteString("> " + rendered + "\n")
		}

	case b != nil && b.Header != 0:
		s.leaveList()
		level := b.Header
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		s.out.WriteString(strings.Repeat("#", level) + " " + rendered + "\n")

	default:
		s.leaveList()
		s.out.WriteString(rendered + "\n")
	}
}

// closeList：开代码围栏前闭合未结束的列表，补一个空行
func (s *serializer) closeList() {
	if s.state == stateList {
		s.out.WriteString("\n")
		s.state = stateNormal
	}
}

func (s *serializer) leaveList() {
	if s.state == stateList {
		s.state = stateNormal
	}
}

var (
	tooManyNewlines   = regexp.MustCompile("\n{4,}")
	trailingLineSpace = regexp.MustCompile("[ \t]+\n")
)

// 整体后处理：4 个以上连续换行压成 3 个，去掉行尾空白，
// 结尾收敛成单个换行（全空结果收敛成空串）。
func postProcess(s string) string {
	s = tooManyNewlines.ReplaceAllString(s, "\n\n\n")
	s = trailingLineSpace.ReplaceAllString(s, "\n")
	s = strings.TrimRight(s, " \t\n")
	if s == "" {
		return ""
	}
	return s + "\n"
}
