// This file is generated - Do Not Edit.

package stores

import (
	"context"

	"github.com/liut/tutoria/pkg/models/audits"
)

func init() {
	RegisterModel((*audits.Record)(nil))
}

type AuditStore interface {
	ListRecord(ctx context.Context, spec *AuditRecordSpec) (data audits.Records, total int, err error)
	GetRecord(ctx context.Context, id string) (obj *audits.Record, err error)
	CreateRecord(ctx context.Context, in audits.RecordBasic) (obj *audits.Record, err error)
	DeleteRecord(ctx context.Context, id string) error
}

type AuditRecordSpec struct {
	PageSpec
	ModelSpec

	// 会话ID
	SessionID string `extensions:"x-order=A" form:"session_id" json:"session_id"`
	// 角色
	Role string `extensions:"x-order=B" form:"role" json:"role"`
}

func (spec *AuditRecordSpec) Sift(q *ormQuery) *ormQuery {
	q = spec.ModelSpec.Sift(q)
	q, _ = siftEqual(q, "session_id", spec.SessionID, false)
	q, _ = siftEqual(q, "role", spec.Role, false)

	return q
}

type auditStore struct {
	w *Wrap
}

func (s *auditStore) ListRecord(ctx context.Context, spec *AuditRecordSpec) (data audits.Records, total int, err error) {
	total, err = s.w.db.ListModel(ctx, spec, &data)
	return
}
func (s *auditStore) GetRecord(ctx context.Context, id string) (obj *audits.Record, err error) {
	obj = new(audits.Record)
	err = dbGetWithPKID(ctx, s.w.db, obj, id)

	return
}
func (s *auditStore) CreateRecord(ctx context.Context, in audits.RecordBasic) (obj *audits.Record, err error) {
	obj = audits.NewRecordWithBasic(in)
	dbMetaUp(ctx, s.w.db, obj)
	err = dbInsert(ctx, s.w.db, obj)
	return
}
func (s *auditStore) DeleteRecord(ctx context.Context, id string) error {
	obj := new(audits.Record)
	return s.w.db.DeleteModel(ctx, obj, id)
}
