package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"markdownServer/backend/internal/delta"
	"markdownServer/backend/internal/markdown"
)

// ProjectionRenderer：markdown 投影的回源端。
// 当前版本直接读 Document 上已渲染好的投影；历史版本查 revision 表，
// markdown 列为空时从存的 Delta 现场重渲。
type ProjectionRenderer struct {
	docs DocumentStore
	revs *RevisionStore
	opts markdown.SerializeOptions
}

func NewProjectionRenderer(docs DocumentStore, revs *RevisionStore, opts markdown.SerializeOptions) *ProjectionRenderer {
	// 回源渲染一律宽松模式，投影端不应该因脏数据拒绝服务
	opts.Strict = false
	return &ProjectionRenderer{docs: docs, revs: revs, opts: opts}
}

// MarkdownProjection 返回 (markdown, 文档是否存在, error)
func (p *ProjectionRenderer) MarkdownProjection(ctx context.Context, docID, rev uint64) (string, bool, error) {
	doc, err := p.docs.GetDocument(ctx, docID)
	if err != nil {
		return "", false, err
	}
	if doc == nil {
		return "", false, nil
	}
	if rev == 0 || rev == doc.Revision {
		if doc.Markdown != "" {
			return doc.Markdown, true, nil
		}
		return p.render(doc.DeltaJSON), true, nil
	}

	deltaJSON, md, err := p.revs.GetRevision(ctx, docID, rev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if md != "" {
		return md, true, nil
	}
	return p.render(deltaJSON), true, nil
}

func (p *ProjectionRenderer) render(deltaJSON string) string {
	d := delta.DecodeOps(json.RawMessage(deltaJSON))
	md, _ := markdown.Serialize(d, p.opts) // 非严格模式不会报错
	return md
}
