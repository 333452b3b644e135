package bridge

import (
	"context"
	"errors"
	"testing"

	"markdownServer/backend/internal/delta"
	"markdownServer/backend/internal/markdown"
	"markdownServer/backend/internal/store"
)

// 纯转换路径不依赖存储，store/dispatcher 都传 nil
func newConvertOnlyService() Service {
	return NewService(nil, nil, markdown.SerializeOptions{}, markdown.ParseOptions{}, nil)
}

func TestService_ConvertDelta(t *testing.T) {
	svc := newConvertOnlyService()
	d := delta.Delta{
		delta.Text("Hello"),
		delta.NewlineWith(delta.BlockAttributes{Header: 1}),
	}
	md, err := svc.ConvertDelta(d, false)
	if err != nil {
		t.Fatalf("ConvertDelta() error = %v", err)
	}
	if md != "# Hello\n" {
		t.Fatalf("ConvertDelta() = %q, want %q", md, "# Hello\n")
	}
}

func TestService_ConvertDeltaStrict(t *testing.T) {
	svc := newConvertOnlyService()
	bad := delta.Delta{{Insert: "x", Block: &delta.BlockAttributes{Header: 1}}}

	if _, err := svc.ConvertDelta(bad, false); err != nil {
		t.Fatalf("lenient ConvertDelta() error = %v", err)
	}

	_, err := svc.ConvertDelta(bad, true)
	var v *delta.CanonicalViolation
	if !errors.As(err, &v) {
		t.Fatalf("strict ConvertDelta() error = %v, want *CanonicalViolation", err)
	}
}

func TestService_ConvertMarkdown(t *testing.T) {
	svc := newConvertOnlyService()
	ops := svc.ConvertMarkdown("- item\n")
	if len(ops) != 2 {
		t.Fatalf("ConvertMarkdown() = %+v, want 2 ops", ops)
	}
	if ops[1].Block == nil || ops[1].Block.List != delta.ListBullet {
		t.Fatalf("ops[1] = %+v, want bullet newline", ops[1])
	}
}

// 内存版文档存储：GetDocument 固定返回构造时的快照（模拟并发提交
// 各自读到同一个旧版本），SaveRepresentations 对实时版本号做 CAS
type staleReadDocStore struct {
	snapshot store.Document
	liveRev  uint64
	saved    []string
}

func (s *staleReadDocStore) GetDocument(ctx context.Context, docID uint64) (*store.Document, error) {
	doc := s.snapshot
	return &doc, nil
}

func (s *staleReadDocStore) GetDocumentByTitle(ctx context.Context, title string) (*store.Document, error) {
	return nil, nil
}

func (s *staleReadDocStore) CreateDocument(ctx context.Context, ownerID uint64, title string) (*store.Document, error) {
	return nil, nil
}

func (s *staleReadDocStore) SaveRepresentations(ctx context.Context, docID uint64, deltaJSON, markdown string, fromRev, toRev uint64) error {
	if s.liveRev != fromRev {
		return store.ErrRevisionConflict
	}
	s.liveRev = toRev
	s.saved = append(s.saved, markdown)
	return nil
}

func (s *staleReadDocStore) ListByOwner(ctx context.Context, ownerID uint64) ([]store.Document, error) {
	return nil, nil
}

type recordingRevLog struct {
	revs []uint64
}

func (r *recordingRevLog) SaveRevision(ctx context.Context, docID uint64, rev uint64, deltaJSON, markdown string) error {
	r.revs = append(r.revs, rev)
	return nil
}

func TestService_SubmitDeltaRevisionConflict(t *testing.T) {
	// 两个提交都基于版本 0：第一个推进到 1，第二个必须拿冲突，
	// 而不是把第一个的内容盖掉
	docs := &staleReadDocStore{snapshot: store.Document{ID: 7, Revision: 0}}
	revLog := &recordingRevLog{}
	svc := NewService(docs, revLog, markdown.SerializeOptions{}, markdown.ParseOptions{}, nil)
	ctx := context.Background()

	first := delta.Delta{delta.Text("first"), delta.Newline()}
	md, rev, err := svc.SubmitDelta(ctx, 7, 1, first)
	if err != nil {
		t.Fatalf("SubmitDelta() error = %v", err)
	}
	if rev != 1 || md != "first\n" {
		t.Fatalf("SubmitDelta() = (%q, %d), want (%q, 1)", md, rev, "first\n")
	}

	second := delta.Delta{delta.Text("second"), delta.Newline()}
	if _, _, err := svc.SubmitDelta(ctx, 7, 2, second); !errors.Is(err, ErrRevisionConflict) {
		t.Fatalf("SubmitDelta() error = %v, want ErrRevisionConflict", err)
	}

	// 落库的内容和版本历史都只有赢家那一份
	if len(docs.saved) != 1 || docs.saved[0] != "first\n" {
		t.Fatalf("saved = %q, want only %q", docs.saved, "first\n")
	}
	if len(revLog.revs) != 1 || revLog.revs[0] != 1 {
		t.Fatalf("revision log = %v, want [1]", revLog.revs)
	}
}
