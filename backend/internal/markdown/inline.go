package markdown

import (
	"strings"

	"markdownServer/backend/internal/delta"
)

// tokenizeInline：单趟从左到右扫描一行 markdown，产出行内 op。
// 每种记号都要求同一行内有配对的闭合符；没有闭合符时开头符降级为普通字符，前进一格。
// 解码后内容为空的 op 直接丢弃。
func tokenizeInline(line string) []delta.Op {
	var ops []delta.Op
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			ops = append(ops, delta.Text(plain.String()))
			plain.Reset()
		}
	}
	emit := func(text string, attrs delta.InlineAttributes) {
		if text == "" {
			return
		}
		flush()
		ops = append(ops, delta.TextWith(text, attrs))
	}

	i := 0
	for i < len(line) {
		switch c := line[i]; c {
		case '\\':
			// 反斜杠+特殊字符：吃掉两个源字符，产出一个字面字符
			if i+1 < len(line) && isSpecial(line[i+1]) {
				plain.WriteByte(line[i+1])
				i += 2
				continue
			}
			plain.WriteByte('\\')
			i++

		case '`':
			end := strings.IndexByte(line[i+1:], '`')
			if end < 0 {
				plain.WriteByte('`')
				i++
				continue
			}
			// 行内代码内容按原样取，不做还原
			emit(line[i+1:i+1+end], delta.InlineAttributes{Code: true})
			i += end + 2

		case '[':
			label, url, next, ok := matchLink(line, i)
			if !ok {
				plain.WriteByte('[')
				i++
				continue
			}
			emit(label, delta.InlineAttributes{Link: url})
			i = next

		case '*':
			// 先试两字符的 **，失败再按单个 * 处理斜体
			if strings.HasPrefix(line[i:], "**") {
				if end := strings.Index(line[i+2:], "**"); end >= 0 {
					emit(unescape(line[i+2:i+2+end]), delta.InlineAttributes{Bold: true})
					i += end + 4
					continue
				}
			}
			// 紧邻的 "**" 不算空斜体对，否则没闭合的 ** 会被吃掉
			if end := strings.IndexByte(line[i+1:], '*'); end > 0 {
				emit(unescape(line[i+1:i+1+end]), delta.InlineAttributes{Italic: true})
				i += end + 2
				continue
			}
			plain.WriteByte('*')
			i++

		case '~':
			if strings.HasPrefix(line[i:], "~~") {
				if end := strings.Index(line[i+2:], "~~"); end >= 0 {
					emit(unescape(line[i+2:i+2+end]), delta.InlineAttributes{Strike: true})
					i += end + 4
					continue
				}
			}
			plain.WriteByte('~')
			i++

		default:
			plain.WriteByte(c)
			i++
		}
	}
	flush()
	return ops
}

// matchLink 尝试从 start 处匹配 [label](url)。
// label 内允许 \[ \] \\ 转义；url 取到最近的右括号为止。
func matchLink(line string, start int) (label, url string, next int, ok bool) {
	i := start + 1
	for i < len(line) {
		if line[i] == '\\' && i+1 < len(line) {
			i += 2
			continue
		}
		if line[i] == ']' {
			break
		}
		i++
	}
	if i >= len(line) || i+1 >= len(line) || line[i+1] != '(' {
		return "", "", 0, false
	}
	closeParen := strings.IndexByte(line[i+2:], ')')
	if closeParen < 0 {
		return "", "", 0, false
	}
	label = unescapeLabel(line[start+1 : i])
	url = line[i+2 : i+2+closeParen]
	return label, url, i + 2 + closeParen + 1, true
}
