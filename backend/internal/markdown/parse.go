package markdown

import (
	"regexp"
	"strings"

	"markdownServer/backend/internal/delta"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	quoteRe   = regexp.MustCompile(`^>\s?(.*)$`)
	orderedRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	bulletRe  = regexp.MustCompile(`^[-*]\s+(.*)$`)
)

// Parse 把 markdown 文本解析成规范化 Delta。逐行分类，永不报错：
// 认不出的行形状一律按普通段落降级处理。
func Parse(md string, opts ParseOptions) delta.Delta {
	opts = opts.withDefaults()
	if md == "" {
		return delta.Delta{delta.Newline()}
	}

	md = strings.ReplaceAll(md, "\r\n", "\n")
	md = strings.ReplaceAll(md, "\r", "\n")

	lines := strings.Split(md, "\n")
	// 末尾换行产生的空尾元素不是一个空行，去掉
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var d delta.Delta
	insideFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// 围栏行本身不产出 op，只翻转状态
		if strings.HasPrefix(trimmed, opts.Fence) {
			insideFence = !insideFence
			continue
		}
		if insideFence {
			// 每个源行对应一个 Delta 行，代码块往返依赖这一点
			if line != "" {
				d = append(d, delta.Text(line))
			}
			d = append(d, delta.NewlineWith(delta.BlockAttributes{CodeBlock: true}))
			continue
		}

		if trimmed == "" {
			d = append(d, delta.Newline())
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			d = append(d, tokenizeInline(m[2])...)
			d = append(d, delta.NewlineWith(delta.BlockAttributes{Header: len(m[1])}))
			continue
		}
		if m := quoteRe.FindStringSubmatch(line); m != nil {
			d = append(d, tokenizeInline(m[1])...)
			d = append(d, delta.NewlineWith(delta.BlockAttributes{Blockquote: true}))
			continue
		}

		// 列表：先算缩进（tab 按 4 个空格），再匹配记号
		indent := leadingWidth(line) / opts.IndentSize
		rest := strings.TrimLeft(line, " \t")
		if m := orderedRe.FindStringSubmatch(rest); m != nil {
			d = append(d, tokenizeInline(m[1])...)
			d = append(d, delta.NewlineWith(delta.BlockAttributes{List: delta.ListOrdered, Indent: indent}))
			continue
		}
		if m := bulletRe.FindStringSubmatch(rest); m != nil {
			d = append(d, tokenizeInline(m[1])...)
			d = append(d, delta.NewlineWith(delta.BlockAttributes{List: delta.ListBullet, Indent: indent}))
			continue
		}

		// 兜底：普通段落
		d = append(d, tokenizeInline(line)...)
		d = append(d, delta.Newline())
	}

	// 结尾必须落在换行 op 上
	if len(d) == 0 || !d[len(d)-1].IsNewline() {
		d = append(d, delta.Newline())
	}
	return d
}

func leadingWidth(line string) int {
	w := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}
