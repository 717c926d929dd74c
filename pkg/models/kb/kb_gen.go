// This file is generated - Do Not Edit.

package kb

import (
	comm "github.com/cupogo/andvari/models/comm"
	oid "github.com/cupogo/andvari/models/oid"
)

// consts of Document 语料文档
const (
	DocumentTable = "kb_corpus_document"
	DocumentAlias = "kd"
	DocumentLabel = "document"
	DocumentTypID = "kbDocument"
)

// Document 语料文档
type Document struct {
	comm.BaseModel `bun:"table:kb_corpus_document,alias:kd" json:"-"`

	comm.DefaultModel

	DocumentBasic

	// 相似度 仅用于查询结果
	Similarity float32 `bun:"-" extensions:"x-order=F" json:"similarity,omitempty" pg:"-"`

	comm.MetaField
} // @name kbDocument

type DocumentBasic struct {
	// 语料库标识
	Corpus string `bun:"corpus,notnull,type:text" extensions:"x-order=A" form:"corpus" json:"corpus" pg:"corpus,notnull,type:text"`
	// 主标题 名称
	Title string `bun:",notnull,type:text,unique:corpus_title_heading_key" extensions:"x-order=B" form:"title" json:"title" pg:",notnull,type:text,unique:corpus_title_heading_key"`
	// 小节标题 属性 类别
	Heading string `bun:",notnull,type:text,unique:corpus_title_heading_key" extensions:"x-order=C" form:"heading" json:"heading" pg:",notnull,type:text,unique:corpus_title_heading_key"`
	// 内容 值
	Content string `bun:",notnull,type:text" extensions:"x-order=D" form:"content" json:"content" pg:",notnull,type:text"`
	// 向量值 长为1536的浮点数集
	Embedding Vector `bun:"embedding,type:vector(1536)" extensions:"x-order=E" json:"embedding,omitempty" pg:"embedding,type:vector(1536)"`
	// for meta update
	MetaDiff *comm.MetaDiff `bson:"-" bun:"-" json:"metaUp,omitempty" pg:"-" swaggerignore:"true"`
} // @name kbDocumentBasic

type Documents []Document

// Creating function call to it's inner fields defined hooks
func (z *Document) Creating() error {
	if z.IsZeroID() {
		z.SetID(oid.NewID(oid.OtArticle))
	}

	return z.DefaultModel.Creating()
}
func NewDocumentWithBasic(in DocumentBasic) *Document {
	obj := &Document{
		DocumentBasic: in,
	}
	_ = obj.MetaUp(in.MetaDiff)
	return obj
}
func NewDocumentWithID(id any) *Document {
	obj := new(Document)
	_ = obj.SetID(id)
	return obj
}
func (_ *Document) IdentityLabel() string { return DocumentLabel }
func (_ *Document) IdentityModel() string { return DocumentTypID }
func (_ *Document) IdentityTable() string { return DocumentTable }
func (_ *Document) IdentityAlias() string { return DocumentAlias }

type DocumentSet struct {
	// 主标题 名称
	Title *string `extensions:"x-order=A" json:"title"`
	// 小节标题 属性 类别
	Heading *string `extensions:"x-order=B" json:"heading"`
	// 内容 值
	Content *string `extensions:"x-order=C" json:"content"`
	// 向量值
	Embedding *Vector `extensions:"x-order=D" json:"embedding,omitempty"`
	// for meta update
	MetaDiff *comm.MetaDiff `json:"metaUp,omitempty" swaggerignore:"true"`
} // @name kbDocumentSet

func (z *Document) SetWith(o DocumentSet) {
	if o.Title != nil && z.Title != *o.Title {
		z.LogChangeValue("title", z.Title, o.Title)
		z.Title = *o.Title
	}
	if o.Heading != nil && z.Heading != *o.Heading {
		z.LogChangeValue("heading", z.Heading, o.Heading)
		z.Heading = *o.Heading
	}
	if o.Content != nil && z.Content != *o.Content {
		z.LogChangeValue("content", z.Content, o.Content)
		z.Content = *o.Content
	}
	if o.Embedding != nil {
		z.Embedding = *o.Embedding
		z.SetChange("embedding")
	}
	if o.MetaDiff != nil && z.MetaUp(o.MetaDiff) {
		z.SetChange("meta")
	}
}
func (in *DocumentBasic) MetaAddKVs(args ...any) *DocumentBasic {
	in.MetaDiff = comm.MetaDiffAddKVs(in.MetaDiff, args...)
	return in
}
func (in *DocumentSet) MetaAddKVs(args ...any) *DocumentSet {
	in.MetaDiff = comm.MetaDiffAddKVs(in.MetaDiff, args...)
	return in
}
