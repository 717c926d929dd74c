// This file is generated - Do Not Edit.

package audits

import (
	comm "github.com/cupogo/andvari/models/comm"
	oid "github.com/cupogo/andvari/models/oid"
)

// consts of Record 聊天审计日志
const (
	RecordTable = "chat_logs"
	RecordAlias = "cl"
	RecordLabel = "record"
	RecordTypID = "auditsRecord"
)

// Record 聊天审计日志
type Record struct {
	comm.BaseModel `bun:"table:chat_logs,alias:cl" json:"-"`

	comm.DefaultModel

	RecordBasic

	comm.MetaField
} // @name auditsRecord

type RecordBasic struct {
	// 会话ID
	SessionID string `bun:"session_id,notnull,type:text" extensions:"x-order=A" form:"session_id" json:"session_id" pg:"session_id,notnull,type:text"`
	// 角色 user|assistant
	Role string `bun:",notnull,type:text" extensions:"x-order=B" form:"role" json:"role" pg:",notnull,type:text"`
	// 内容
	Content string `bun:",notnull,type:text" extensions:"x-order=C" form:"content" json:"content" pg:",notnull,type:text"`
	// for meta update
	MetaDiff *comm.MetaDiff `bson:"-" bun:"-" json:"metaUp,omitempty" pg:"-" swaggerignore:"true"`
} // @name auditsRecordBasic

type Records []Record

// Creating function call to it's inner fields defined hooks
func (z *Record) Creating() error {
	if z.IsZeroID() {
		z.SetID(oid.NewID(oid.OtEvent))
	}

	return z.DefaultModel.Creating()
}
func NewRecordWithBasic(in RecordBasic) *Record {
	obj := &Record{
		RecordBasic: in,
	}
	_ = obj.MetaUp(in.MetaDiff)
	return obj
}
func NewRecordWithID(id any) *Record {
	obj := new(Record)
	_ = obj.SetID(id)
	return obj
}
func (_ *Record) IdentityLabel() string { return RecordLabel }
func (_ *Record) IdentityModel() string { return RecordTypID }
func (_ *Record) IdentityTable() string { return RecordTable }
func (_ *Record) IdentityAlias() string { return RecordAlias }

type RecordSet struct {
	// 内容
	Content *string `extensions:"x-order=A" json:"content"`
	// for meta update
	MetaDiff *comm.MetaDiff `json:"metaUp,omitempty" swaggerignore:"true"`
} // @name auditsRecordSet

func (z *Record) SetWith(o RecordSet) {
	if o.Content != nil && z.Content != *o.Content {
		z.LogChangeValue("content", z.Content, o.Content)
		z.Content = *o.Content
	}
	if o.MetaDiff != nil && z.MetaUp(o.MetaDiff) {
		z.SetChange("meta")
	}
}
func (in *RecordBasic) MetaAddKVs(args ...any) *RecordBasic {
	in.MetaDiff = comm.MetaDiffAddKVs(in.MetaDiff, args...)
	return in
}
func (in *RecordSet) MetaAddKVs(args ...any) *RecordSet {
	in.MetaDiff = comm.MetaDiffAddKVs(in.MetaDiff, args...)
	return in
}
