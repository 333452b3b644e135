package delta

import (
	"encoding/json"
	"testing"
)

func TestOp_MarshalWireFormat(t *testing.T) {
	cases := []struct {
		name string
		op   Op
		want string
	}{
		{"plain text", Text("hello"), `{"insert":"hello"}`},
		{"bold text", TextWith("b", InlineAttributes{Bold: true}), `{"attributes":{"bold":true},"insert":"b"}`},
		{"header newline", NewlineWith(BlockAttributes{Header: 2}), `{"attributes":{"header":2},"insert":"\n"}`},
		{"image embed", EmbedOp(Embed{Kind: EmbedImage, Source: "http://e.test/p.png"}), `{"insert":{"image":"http://e.test/p.png"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.op)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(b) != tc.want {
				t.Fatalf("Marshal() = %s, want %s", b, tc.want)
			}
		})
	}
}

func TestOp_UnmarshalRoutesAttributesByName(t *testing.T) {
	// 属性按键名归类；文本 op 上的 header 也归入块属性，由 Validate 报告
	var op Op
	if err := json.Unmarshal([]byte(`{"insert":"x","attributes":{"header":1}}`), &op); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if op.Block == nil || op.Block.Header != 1 {
		t.Fatalf("op.Block = %+v, want header 1", op.Block)
	}
	if err := Validate(Delta{op}); err == nil {
		t.Fatalf("Validate() = nil, want violation")
	}
}

func TestOp_UnmarshalEmbed(t *testing.T) {
	var op Op
	if err := json.Unmarshal([]byte(`{"insert":{"video":"http://e.test/v.mp4"}}`), &op); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if op.Embed == nil || op.Embed.Kind != EmbedVideo || op.Embed.Source != "http://e.test/v.mp4" {
		t.Fatalf("op.Embed = %+v", op.Embed)
	}
}

func TestOp_UnmarshalIgnoresUnknownAttributes(t *testing.T) {
	var op Op
	if err := json.Unmarshal([]byte(`{"insert":"x","attributes":{"underline":true}}`), &op); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if op.Block != nil || op.Inline != nil {
		t.Fatalf("op = %+v, want no attributes", op)
	}
}

func TestDecodeOps(t *testing.T) {
	d := DecodeOps([]byte(`[{"insert":"hi"},{"insert":"\n","attributes":{"header":1}}]`))
	if len(d) != 2 || d[0].Insert != "hi" || d[1].Block.Header != 1 {
		t.Fatalf("DecodeOps() = %+v", d)
	}
	// 非法 JSON 宽松降级为 nil
	if d := DecodeOps([]byte(`{"not":"an array"}`)); d != nil {
		t.Fatalf("DecodeOps() = %+v, want nil", d)
	}
}

func TestDelta_MarshalRoundtrip(t *testing.T) {
	d := Delta{
		Text("a"),
		TextWith("b", InlineAttributes{Italic: true, Link: "http://x.test"}),
		NewlineWith(BlockAttributes{List: ListOrdered, Indent: 1}),
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Delta
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(back) != len(d) {
		t.Fatalf("len = %d, want %d", len(back), len(d))
	}
	if back[1].Inline == nil || !back[1].Inline.Italic || back[1].Inline.Link != "http://x.test" {
		t.Fatalf("back[1] = %+v", back[1])
	}
	if back[2].Block == nil || back[2].Block.List != ListOrdered || back[2].Block.Indent != 1 {
		t.Fatalf("back[2] = %+v", back[2])
	}
}
