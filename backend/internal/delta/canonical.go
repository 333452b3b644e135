package delta

import (
	"fmt"
	"strings"
)

// 规范性不变量的名字，校验失败时放进 CanonicalViolation
const (
	InvariantStandaloneNewline = "NEWLINE_MUST_BE_STANDALONE"
	InvariantBlockOnNewline    = "BLOCK_ATTRS_ONLY_ON_NEWLINE"
	InvariantInlineOnText      = "INLINE_ATTRS_ONLY_ON_TEXT"
)

// CanonicalViolation：严格模式下序列化前的校验错误，指明坏在哪条不变量、哪个 op
type CanonicalViolation struct {
	Invariant string
	OpIndex   int
	Detail    string
}

func (v *CanonicalViolation) Error() string {
	return fmt.Sprintf("canonical violation at op %d: %s (%s)", v.OpIndex, v.Invariant, v.Detail)
}

// Validate 检查 Delta 是否满足规范形式。
// Parser 产出的 Delta 天然满足；外部传入的要过这里。
func Validate(d Delta) error {
	for i, op := range d {
		if op.Embed != nil {
			if !op.Block.Empty() {
				return &CanonicalViolation{
					Invariant: InvariantBlockOnNewline,
					OpIndex:   i,
					Detail:    "block attributes on embed op",
				}
			}
			continue
		}
		if op.Insert == "\n" {
			if !op.Inline.Empty() {
				return &CanonicalViolation{
					Invariant: InvariantInlineOnText,
					OpIndex:   i,
					Detail:    "inline attributes on newline op",
				}
			}
			continue
		}
		if strings.Contains(op.Insert, "\n") {
			return &CanonicalViolation{
				Invariant: InvariantStandaloneNewline,
				OpIndex:   i,
				Detail:    "text op contains embedded newline",
			}
		}
		if !op.Block.Empty() {
			return &CanonicalViolation{
				Invariant: InvariantBlockOnNewline,
				OpIndex:   i,
				Detail:    "block attributes on text op",
			}
		}
	}
	return nil
}
