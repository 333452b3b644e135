package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"markdownServer/backend/internal/delta"
	"markdownServer/backend/internal/events"
	"markdownServer/backend/internal/markdown"
	"markdownServer/backend/internal/store"
)

// 双面文档服务接口：富文本面提交 Delta，纯文本面提交 markdown，
// 服务端转换出另一面的表示并把两种一起落库
type Service interface {
	// 纯转换，不落库
	ConvertDelta(ops delta.Delta, strict bool) (string, error)
	ConvertMarkdown(content string) delta.Delta

	// 提交并持久化，返回另一面的表示和新版本号
	SubmitDelta(ctx context.Context, docID, authorID uint64, ops delta.Delta) (string, uint64, error)
	SubmitMarkdown(ctx context.Context, docID, authorID uint64, content string) (delta.Delta, uint64, error)

	CreateDocument(ctx context.Context, ownerID uint64, title string) (*store.Document, error)
	GetDocument(ctx context.Context, docID uint64) (*store.Document, error)
	GetDocumentID(ctx context.Context, title string) (uint64, error)
	ListDocuments(ctx context.Context, ownerID uint64) ([]store.Document, error)
}

var (
	ErrDocumentNotFound = errors.New("DOCUMENT_NOT_FOUND")
	// 乐观并发失败，和 store 层共用同一个哨兵
	ErrRevisionConflict = store.ErrRevisionConflict
)

// RevisionLog：版本历史的追加端，*store.RevisionStore 实现了它
type RevisionLog interface {
	SaveRevision(ctx context.Context, docID uint64, rev uint64, deltaJSON, markdown string) error
}

type storeService struct {
	docs store.DocumentStore
	revs RevisionLog

	serializeOpts markdown.SerializeOptions
	parseOpts     markdown.ParseOptions

	dispatcher *events.Dispatcher
}

func NewService(docs store.DocumentStore, revs RevisionLog,
	serializeOpts markdown.SerializeOptions, parseOpts markdown.ParseOptions,
	dispatcher *events.Dispatcher) Service {
	// 保存链路一律宽松，严格校验只在显式要求时做
	serializeOpts.Strict = false
	return &storeService{
		docs:          docs,
		revs:          revs,
		serializeOpts: serializeOpts,
		parseOpts:     parseOpts,
		dispatcher:    dispatcher,
	}
}

func (s *storeService) ConvertDelta(ops delta.Delta, strict bool) (string, error) {
	opts := s.serializeOpts
	opts.Strict = strict
	return markdown.Serialize(ops, opts)
}

func (s *storeService) ConvertMarkdown(content string) delta.Delta {
	return markdown.Parse(content, s.parseOpts)
}

func (s *storeService) SubmitDelta(ctx context.Context, docID, authorID uint64, ops delta.Delta) (string, uint64, error) {
	md, err := markdown.Serialize(ops, s.serializeOpts)
	if err != nil {
		return "", 0, err
	}
	rev, err := s.persist(ctx, docID, authorID, ops, md, "delta")
	if err != nil {
		return "", 0, err
	}
	return md, rev, nil
}

func (s *storeService) SubmitMarkdown(ctx context.Context, docID, authorID uint64, content string) (delta.Delta, uint64, error) {
	ops := markdown.Parse(content, s.parseOpts)
	// 落库的是规范化后的 markdown，保证投影是序列化的不动点
	md, _ := markdown.Serialize(ops, s.serializeOpts)
	rev, err := s.persist(ctx, docID, authorID, ops, md, "markdown")
	if err != nil {
		return nil, 0, err
	}
	return ops, rev, nil
}

func (s *storeService) persist(ctx context.Context, docID, authorID uint64, ops delta.Delta, md string, source string) (uint64, error) {
	doc, err := s.docs.GetDocument(ctx, docID)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, ErrDocumentNotFound
	}

	b, err := json.Marshal(ops)
	if err != nil {
		return 0, err
	}

	// CAS 推进版本号：并发提交只有一个能从 doc.Revision 走到 rev，
	// 输家拿 ErrRevisionConflict，由调用方决定重试
	rev := doc.Revision + 1
	if err := s.docs.SaveRepresentations(ctx, docID, string(b), md, doc.Revision, rev); err != nil {
		return 0, err
	}
	if s.revs != nil {
		if err := s.revs.SaveRevision(ctx, docID, rev, string(b), md); err != nil {
			return 0, err
		}
	}

	// 事件尽力送达，入队失败只记日志不影响保存
	if s.dispatcher != nil {
		evt := events.DocConvertedEvent{
			EventType: "DOC_CONVERTED",
			DocID:     docID,
			Revision:  rev,
			AuthorID:  authorID,
			Source:    source,
			Ops:       ops,
			Markdown:  md,
			SavedAt:   time.Now(),
		}
		enqCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		if err := s.dispatcher.Enqueue(enqCtx, evt); err != nil {
			log.Printf("enqueue doc-converted event failed doc=%d rev=%d err=%v", docID, rev, err)
		}
		cancel()
	}
	return rev, nil
}

func (s *storeService) CreateDocument(ctx context.Context, ownerID uint64, title string) (*store.Document, error) {
	if s.docs == nil {
		return nil, errors.New("document store not initialized")
	}
	return s.docs.CreateDocument(ctx, ownerID, title)
}

func (s *storeService) GetDocument(ctx context.Context, docID uint64) (*store.Document, error) {
	if s.docs == nil {
		return nil, errors.New("document store not initialized")
	}
	return s.docs.GetDocument(ctx, docID)
}

func (s *storeService) GetDocumentID(ctx context.Context, title string) (uint64, error) {
	doc, err := s.docs.GetDocumentByTitle(ctx, title)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, ErrDocumentNotFound
	}
	return doc.ID, nil
}

func (s *storeService) ListDocuments(ctx context.Context, ownerID uint64) ([]store.Document, error) {
	return s.docs.ListByOwner(ctx, ownerID)
}
