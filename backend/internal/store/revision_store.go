package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// RevisionStore：append-only 的版本历史，每次保存落一行。
// 走 database/sql 裸写，不过 gorm。
type RevisionStore struct{ db *sql.DB }

func NewRevisionStore(db *sql.DB) *RevisionStore {
	return &RevisionStore{db: db}
}

func (s *RevisionStore) SaveRevision(ctx context.Context, docID uint64, rev uint64, deltaJSON, markdown string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_revisions (document_id, revision, delta_json, markdown)
		VALUES (?, ?, ?, ?)`,
		docID,
		rev,
		deltaJSON,
		markdown,
	)
	if err != nil {
		// 同一 (doc, rev) 已有一行：说明版本号被并发提交抢走了，
		// 当成功吞掉会把输家的内容丢掉，必须报冲突
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrRevisionConflict
		}
		return err
	}
	return nil
}

func (s *RevisionStore) GetRevision(ctx context.Context, docID uint64, rev uint64) (deltaJSON string, markdown string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT delta_json, markdown FROM document_revisions
		WHERE document_id = ? AND revision = ?`,
		docID,
		rev,
	).Scan(&deltaJSON, &markdown)
	// sql.ErrNoRows 由调用方判断
	return deltaJSON, markdown, err
}
