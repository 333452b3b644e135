package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Document 同时持久化两种表示：规范化 Delta 的 JSON 和渲染后的 markdown 投影。
// 两个编辑面共享同一行，revision 每次保存递增。
type Document struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Title     string `gorm:"type:varchar(255);uniqueIndex"`
	OwnerID   uint64 `gorm:"index"`
	DeltaJSON string `gorm:"type:longtext"`
	Markdown  string `gorm:"type:longtext"`
	Revision  uint64 `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrRevisionConflict：乐观并发失败。两个提交读到了同一个旧版本，
// 只有一个能推进版本号，输家拿这个错误重试而不是悄悄覆盖。
var ErrRevisionConflict = errors.New("REVISION_CONFLICT")

type DocumentStore interface {
	GetDocument(ctx context.Context, docID uint64) (*Document, error)
	GetDocumentByTitle(ctx context.Context, title string) (*Document, error)
	CreateDocument(ctx context.Context, ownerID uint64, title string) (*Document, error)
	// SaveRepresentations 一次写入两种表示并推进版本号。
	// 带版本号比较的 CAS 写：只有当前版本仍是 fromRev 时才生效，
	// 否则返回 ErrRevisionConflict。
	SaveRepresentations(ctx context.Context, docID uint64, deltaJSON, markdown string, fromRev, toRev uint64) error
	ListByOwner(ctx context.Context, ownerID uint64) ([]Document, error)
}

type mysqlDocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) DocumentStore {
	return &mysqlDocumentStore{db: db}
}

func (s *mysqlDocumentStore) GetDocument(ctx context.Context, docID uint64) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).First(&doc, docID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 没找到，返回 nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *mysqlDocumentStore) GetDocumentByTitle(ctx context.Context, title string) (*Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).Where("title = ?", title).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *mysqlDocumentStore) CreateDocument(ctx context.Context, ownerID uint64, title string) (*Document, error) {
	doc := Document{
		Title:   title,
		OwnerID: ownerID,
		// 新文档就是一个空行
		DeltaJSON: `[{"insert":"\n"}]`,
		Markdown:  "",
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *mysqlDocumentStore) SaveRepresentations(ctx context.Context, docID uint64, deltaJSON, markdown string, fromRev, toRev uint64) error {
	res := s.db.WithContext(ctx).Model(&Document{}).
		Where("id = ? AND revision = ?", docID, fromRev).
		Updates(map[string]any{
			"delta_json": deltaJSON,
			"markdown":   markdown,
			"revision":   toRev,
		})
	if res.Error != nil {
		return res.Error
	}
	// 版本号已被别人推进（调用方刚确认过文档存在）
	if res.RowsAffected == 0 {
		return ErrRevisionConflict
	}
	return nil
}

func (s *mysqlDocumentStore) ListByOwner(ctx context.Context, ownerID uint64) ([]Document, error) {
	var docs []Document
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&docs).Error
	return docs, err
}
