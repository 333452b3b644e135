package markdown

import (
	"errors"
	"testing"

	"markdownServer/backend/internal/delta"
)

func mustSerialize(t *testing.T, d delta.Delta) string {
	t.Helper()
	got, err := Serialize(d, SerializeOptions{})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return got
}

func TestSerialize_Heading(t *testing.T) {
	d := delta.Delta{
		delta.Text("Hello"),
		delta.NewlineWith(delta.BlockAttributes{Header: 1}),
	}
	if got := mustSerialize(t, d); got != "# Hello\n" {
		t.Fatalf("Serialize() = %q, want %q", got, "# Hello\n")
	}
}

func TestSerialize_HeaderLevelClamped(t *testing.T) {
	d := delta.Delta{
		delta.Text("deep"),
		delta.NewlineWith(delta.BlockAttributes{Header: 9}),
	}
	if got := mustSerialize(t, d); got != "###### deep\n" {
		t.Fatalf("Serialize() = %q, want %q", got, "###### deep\n")
	}
}

func TestSerialize_OrderedListCounter(t *testing.T) {
	// 有序列表逐项递增，被 bullet 打断后计数器归零
	d := delta.Delta{
		delta.Text("a"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListOrdered}),
		delta.Text("b"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListOrdered}),
		delta.Text("x"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListBullet}),
		delta.Text("c"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListOrdered}),
	}
	want := "1. a\n2. b\n\n- x\n\n1. c\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_OrderedOneStyle(t *testing.T) {
	d := delta.Delta{
		delta.Text("a"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListOrdered}),
		delta.Text("b"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListOrdered}),
	}
	got, err := Serialize(d, SerializeOptions{OrderedListStyle: OrderedOne})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if want := "1. a\n1. b\n"; got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_NestedList(t *testing.T) {
	d := delta.Delta{
		delta.Text("a"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListBullet}),
		delta.Text("b"), delta.NewlineWith(delta.BlockAttributes{List: delta.ListBullet, Indent: 1}),
	}
	want := "- a\n  - b\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_CombinedInline(t *testing.T) {
	// 链接在内，加粗在外
	d := delta.Delta{
		delta.TextWith("click", delta.InlineAttributes{Bold: true, Link: "http://x.test"}),
		delta.Newline(),
	}
	want := "**[click](http://x.test)**\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_InlineCodeExclusive(t *testing.T) {
	// code 排他：同 op 上的 bold 被忽略，内容只转义反斜杠和反引号
	d := delta.Delta{
		delta.TextWith("a`b", delta.InlineAttributes{Code: true, Bold: true}),
		delta.Newline(),
	}
	want := "`a\\`b`\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_Strike(t *testing.T) {
	d := delta.Delta{
		delta.TextWith("gone", delta.InlineAttributes{Strike: true}),
		delta.Newline(),
	}
	if got := mustSerialize(t, d); got != "~~gone~~\n" {
		t.Fatalf("Serialize() = %q, want %q", got, "~~gone~~\n")
	}
}

func TestSerialize_EscapesSpecialChars(t *testing.T) {
	d := delta.Delta{delta.Text("a*b"), delta.Newline()}
	if got := mustSerialize(t, d); got != "a\\*b\n" {
		t.Fatalf("Serialize() = %q, want %q", got, "a\\*b\n")
	}
}

func TestSerialize_LinkURLSpaceEncoded(t *testing.T) {
	d := delta.Delta{
		delta.TextWith("doc", delta.InlineAttributes{Link: "http://x.test/a b"}),
		delta.Newline(),
	}
	want := "[doc](http://x.test/a%20b)\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_CodeBlock(t *testing.T) {
	d := delta.Delta{
		delta.Text("x=1"),
		delta.NewlineWith(delta.BlockAttributes{CodeBlock: true}),
	}
	want := "```\nx=1\n```\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_CodeBlockKeepsRawText(t *testing.T) {
	// 代码块内不做行内转义
	d := delta.Delta{
		delta.Text("a := *p"),
		delta.NewlineWith(delta.BlockAttributes{CodeBlock: true}),
	}
	want := "```\na := *p\n```\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_CustomFence(t *testing.T) {
	d := delta.Delta{
		delta.Text("x=1"),
		delta.NewlineWith(delta.BlockAttributes{CodeBlock: true}),
	}
	got, err := Serialize(d, SerializeOptions{Fence: "~~~"})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if want := "~~~\nx=1\n~~~\n"; got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_BackslashHandling(t *testing.T) {
	// 孤立的结尾反斜杠补成双反斜杠
	d := delta.Delta{delta.Text(`a\`), delta.Newline()}
	if got := mustSerialize(t, d); got != "a\\\\\n" {
		t.Fatalf("Serialize() = %q, want %q", got, "a\\\\\n")
	}
	// 已经合法的转义对原样保留，不再叠加转义
	d = delta.Delta{delta.Text(`a\*b`), delta.Newline()}
	if got := mustSerialize(t, d); got != "a\\*b\n" {
		t.Fatalf("Serialize() = %q, want %q", got, "a\\*b\n")
	}
}

func TestSerialize_Blockquote(t *testing.T) {
	d := delta.Delta{
		delta.Text("quoted"),
		delta.NewlineWith(delta.BlockAttributes{Blockquote: true}),
		delta.NewlineWith(delta.BlockAttributes{Blockquote: true}),
	}
	want := "> quoted\n>\n"
	if got := mustSerialize(t, d); got != want {
		t.Fatalf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_Embeds(t *testing.T) {
	cases := []struct {
		name string
		e    delta.Embed
		want string
	}{
		{"image", delta.Embed{Kind: delta.EmbedImage, Source: "http://e.test/p.png"}, "![](http://e.test/p.png)\n"},
		{"video", delta.Embed{Kind: delta.EmbedVideo, Source: "http://e.test/v.mp4"}, "[](http://e.test/v.mp4)\n"},
		{"custom-uri", delta.Embed{Kind: delta.EmbedCustomURI, Source: "thing://42"}, "thing://42\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := delta.Delta{delta.EmbedOp(tc.e), delta.Newline()}
			if got := mustSerialize(t, d); got != tc.want {
				t.Fatalf("Serialize() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSerialize_EmptyAndNewlineOnly(t *testing.T) {
	if got := mustSerialize(t, nil); got != "" {
		t.Fatalf("Serialize(nil) = %q, want empty", got)
	}
	// 只有一个换行的空文档收敛成空串
	if got := mustSerialize(t, delta.Delta{delta.Newline()}); got != "" {
		t.Fatalf("Serialize() = %q, want empty", got)
	}
}

func TestSerialize_MissingTrailingNewlineTolerated(t *testing.T) {
	// 宽松模式下残缺输入也要吐出内容
	d := delta.Delta{delta.Text("dangling")}
	if got := mustSerialize(t, d); got != "dangling\n" {
		t.Fatalf("Serialize() = %q, want %q", got, "dangling\n")
	}
}

func TestSerialize_StrictRejectsBlockAttrsOnText(t *testing.T) {
	d := delta.Delta{
		{Insert: "x", Block: &delta.BlockAttributes{Header: 1}},
		delta.Newline(),
	}
	_, err := Serialize(d, SerializeOptions{Strict: true})
	var v *delta.CanonicalViolation
	if !errors.As(err, &v) {
		t.Fatalf("Serialize() error = %v, want *CanonicalViolation", err)
	}
	if v.Invariant != delta.InvariantBlockOnNewline || v.OpIndex != 0 {
		t.Fatalf("violation = %+v, want %s at op 0", v, delta.InvariantBlockOnNewline)
	}
	// 同一份输入非严格模式不报错
	if _, err := Serialize(d, SerializeOptions{}); err != nil {
		t.Fatalf("lenient Serialize() error = %v", err)
	}
}
