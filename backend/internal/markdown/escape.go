package markdown

import "strings"

// 需要转义的特殊字符集合，序列化和解析两端共用同一份
const specialChars = "\\*_`[]~"

func isSpecial(c byte) bool { return strings.IndexByte(specialChars, c) >= 0 }

// escapeText：普通文本的整体转义。
// 已经合法的转义对（反斜杠+特殊字符）原样保留，孤立反斜杠补成双反斜杠。
func escapeText(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' {
			if i+1 < len(s) && isSpecial(s[i+1]) {
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			b.WriteString(`\\`)
			i++
			continue
		}
		if isSpecial(c) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// escapeLabel：链接文本用更窄的集合，只管反斜杠和中括号
func escapeLabel(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escapeCode：行内代码只转义反斜杠和反引号
func escapeCode(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "`", "\\`")
}

// url 里的空格会截断 markdown 链接，编码掉
func encodeLinkURL(u string) string { return strings.ReplaceAll(u, " ", "%20") }

// unescape 只还原 反斜杠+特殊字符 的组合，其余反斜杠序列原样透传
func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isSpecial(s[i+1]) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescapeLabel：链接文本只还原 \\ \[ \]
func unescapeLabel(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\', '[', ']':
				b.WriteByte(s[i+1])
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
