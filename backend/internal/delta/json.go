package delta

import "encoding/json"

// 线格式与编辑器一致：
// {"insert":"text","attributes":{"bold":true}}
// {"insert":"\n","attributes":{"header":1}}
// {"insert":{"image":"https://..."}}

func (o Op) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, 2)
	if o.Embed != nil {
		raw["insert"] = map[string]string{string(o.Embed.Kind): o.Embed.Source}
	} else {
		raw["insert"] = o.Insert
	}
	attrs := make(map[string]any)
	if o.Block != nil {
		if o.Block.Header != 0 {
			attrs["header"] = o.Block.Header
		}
		if o.Block.Blockquote {
			attrs["blockquote"] = true
		}
		if o.Block.List != "" {
			attrs["list"] = o.Block.List
		}
		if o.Block.Indent != 0 {
			attrs["indent"] = o.Block.Indent
		}
		if o.Block.CodeBlock {
			attrs["code-block"] = true
		}
	}
	if o.Inline != nil {
		if o.Inline.Bold {
			attrs["bold"] = true
		}
		if o.Inline.Italic {
			attrs["italic"] = true
		}
		if o.Inline.Strike {
			attrs["strike"] = true
		}
		if o.Inline.Code {
			attrs["code"] = true
		}
		if o.Inline.Link != "" {
			attrs["link"] = o.Inline.Link
		}
	}
	if len(attrs) > 0 {
		raw["attributes"] = attrs
	}
	return json.Marshal(raw)
}

func (o *Op) UnmarshalJSON(data []byte) error {
	var raw struct {
		Insert     json.RawMessage            `json:"insert"`
		Attributes map[string]json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var s string
	if err := json.Unmarshal(raw.Insert, &s); err == nil {
		o.Insert = s
	} else {
		// insert 不是字符串就按嵌入对象处理：{kind: source}
		var obj map[string]string
		if err := json.Unmarshal(raw.Insert, &obj); err != nil {
			return err
		}
		for k, v := range obj {
			o.Embed = &Embed{Kind: EmbedKind(k), Source: v}
			break
		}
	}

	if len(raw.Attributes) == 0 {
		return nil
	}
	// 属性按键名归类，不按 op 形状归类；错挂的属性留给 Validate 报告
	var block BlockAttributes
	var inline InlineAttributes
	for k, v := range raw.Attributes {
		switch k {
		case "header":
			_ = json.Unmarshal(v, &block.Header)
		case "blockquote":
			_ = json.Unmarshal(v, &block.Blockquote)
		case "list":
			_ = json.Unmarshal(v, &block.List)
		case "indent":
			_ = json.Unmarshal(v, &block.Indent)
		case "code-block":
			_ = json.Unmarshal(v, &block.CodeBlock)
		case "bold":
			_ = json.Unmarshal(v, &inline.Bold)
		case "italic":
			_ = json.Unmarshal(v, &inline.Italic)
		case "strike":
			_ = json.Unmarshal(v, &inline.Strike)
		case "code":
			_ = json.Unmarshal(v, &inline.Code)
		case "link":
			_ = json.Unmarshal(v, &inline.Link)
		default:
			// 未知属性忽略（underline 等明确不支持）
		}
	}
	if !block.Empty() {
		o.Block = &block
	}
	if !inline.Empty() {
		o.Inline = &inline
	}
	return nil
}

// DecodeOps 宽松解码：ops 不是合法数组时返回 nil，
// 由序列化端按非严格模式降级为空串，不在这里报错。
func DecodeOps(raw json.RawMessage) Delta {
	var d Delta
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil
	}
	return d
}
