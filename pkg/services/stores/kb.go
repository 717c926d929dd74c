package stores

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/liut/tutoria/pkg/models/kb"
	"github.com/liut/tutoria/pkg/settings"
)

const (
	dftThreshold = 0.52
	dftLimit     = 4

	noMatchText = "No relevant information found"
)

var (
	ErrEmptyParam = errors.New("empty param")

	kbHeads = []string{"title", "heading", "content"}

	replText = strings.NewReplacer("\u2028", "\n")
)

func init() {
	RegisterModel((*kb.Document)(nil))
}

type MatchSpec struct {
	Question  string
	Threshold float32
	Limit     int
}

func (ms *MatchSpec) setDefaults() {
	if ms.Threshold == 0 {
		ms.Threshold = dftThreshold
	}
	if ms.Limit == 0 {
		ms.Limit = dftLimit
	}
}

type ExportArg struct {
	Spec   *KbDocumentSpec
	Out    io.Writer
	Format string // csv,jsonl
}

type KbDocumentSpec struct {
	PageSpec
	ModelSpec

	// 语料库标识
	Corpus string `extensions:"x-order=A" form:"corpus" json:"corpus"`
	// 主标题 名称
	Title string `extensions:"x-order=B" form:"title" json:"title"`
	// 小节标题 属性 类别
	Heading string `extensions:"x-order=C" form:"heading" json:"heading"`
	// 内容 值
	Content string `extensions:"x-order=D" form:"content" json:"content"`
}

func (spec *KbDocumentSpec) Sift(q *ormQuery) *ormQuery {
	q = spec.ModelSpec.Sift(q)
	q, _ = siftEqual(q, "corpus", spec.Corpus, false)
	q, _ = siftMatch(q, "title", spec.Title, false)
	q, _ = siftMatch(q, "heading", spec.Heading, false)
	q, _ = siftMatch(q, "content", spec.Content, false)

	return q
}
func (spec *KbDocumentSpec) CanSort(k string) bool {
	switch k {
	case "heading":
		return true
	default:
		return spec.ModelSpec.CanSort(k)
	}
}

type KbStore interface {
	ListDocument(ctx context.Context, spec *KbDocumentSpec) (data kb.Documents, total int, err error)
	GetDocument(ctx context.Context, id string) (obj *kb.Document, err error)
	CreateDocument(ctx context.Context, in kb.DocumentBasic) (obj *kb.Document, err error)
	UpdateDocument(ctx context.Context, id string, in kb.DocumentSet) error
	DeleteDocument(ctx context.Context, id string) error

	MatchDocuments(ctx context.Context, ms MatchSpec) (data kb.Documents, err error)
	MatchDocumentsWith(ctx context.Context, vec kb.Vector, threshold float32, limit int) (data kb.Documents, err error)
	Search(ctx context.Context, subject string) (string, error)

	ImportFromCSV(ctx context.Context, r io.Reader) error
	ExportDocuments(ctx context.Context, ea ExportArg) error
}

type kbStore struct {
	w *Wrap
}

func (s *kbStore) ListDocument(ctx context.Context, spec *KbDocumentSpec) (data kb.Documents, total int, err error) {
	total, err = s.w.db.ListModel(ctx, spec, &data)
	return
}
func (s *kbStore) GetDocument(ctx context.Context, id string) (obj *kb.Document, err error) {
	obj = new(kb.Document)
	err = dbGetWithPKID(ctx, s.w.db, obj, id)

	return
}
func (s *kbStore) CreateDocument(ctx context.Context, in kb.DocumentBasic) (obj *kb.Document, err error) {
	err = s.w.db.RunInTx(ctx, nil, func(ctx context.Context, tx pgTx) (err error) {
		obj = kb.NewDocumentWithBasic(in)
		if len(obj.Corpus) == 0 {
			obj.Corpus = settings.Current.CorpusID
		}
		if err = dbBeforeSaveKbDocument(ctx, tx, obj); err != nil {
			return
		}
		dbMetaUp(ctx, tx, obj)
		err = dbInsert(ctx, tx, obj)
		return err
	})
	return
}
func (s *kbStore) UpdateDocument(ctx context.Context, id string, in kb.DocumentSet) error {
	return s.w.db.RunInTx(ctx, nil, func(ctx context.Context, tx pgTx) (err error) {
		exist := new(kb.Document)
		if err = dbGetWithPKID(ctx, tx, exist, id); err != nil {
			return err
		}
		exist.SetIsUpdate(true)
		exist.SetWith(in)
		if err = dbBeforeSaveKbDocument(ctx, tx, exist); err != nil {
			return err
		}
		dbMetaUp(ctx, tx, exist)
		return dbUpdate(ctx, tx, exist)
	})
}
func (s *kbStore) DeleteDocument(ctx context.Context, id string) error {
	obj := new(kb.Document)
	return s.w.db.DeleteModel(ctx, obj, id)
}

func dbBeforeSaveKbDocument(ctx context.Context, db ormDB, obj *kb.Document) error {
	if len(obj.Content) == 0 {
		return fmt.Errorf("empty content: %s,%s", obj.Title, obj.Heading)
	}
	if !obj.IsUpdate() || obj.HasChange("content") {
		text := fmt.Sprintf("%s %s: %s", obj.Title, obj.Heading, obj.Content)
		vec, err := GetEmbedding(ctx, text)
		if err != nil {
			return err
		}
		if len(vec) > 0 {
			obj.Embedding = vec
			if obj.IsUpdate() {
				obj.SetChange("embedding")
			}
		}
	}
	return nil
}

func GetEmbedding(ctx context.Context, text string) (vec kb.Vector, err error) {
	if len(text) == 0 {
		err = ErrEmptyParam
		return
	}
	oc := NewOpenAIClient()
	res, err := oc.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.AdaEmbeddingV2,
	})
	if err != nil {
		logger().Infow("embedding fail", "text", text, "err", err)
		return
	}
	logger().Debugw("embedding res", "len", len(text), "usage", &res.Usage)
	if len(res.Data) > 0 {
		vec = kb.Vector(res.Data[0].Embedding)
	}
	return
}

func (s *kbStore) MatchDocuments(ctx context.Context, ms MatchSpec) (data kb.Documents, err error) {
	ms.setDefaults()
	var vec kb.Vector
	vec, err = GetEmbedding(ctx, ms.Question)
	if err != nil {
		return
	}
	data, err = s.MatchDocumentsWith(ctx, vec, ms.Threshold, ms.Limit)
	return
}
func (s *kbStore) MatchDocumentsWith(ctx context.Context, vec kb.Vector, threshold float32, limit int) (data kb.Documents, err error) {
	if len(vec) != kb.VectorLen {
		return
	}
	err = s.w.db.NewRaw("SELECT * FROM kb_match_documents(?, ?, ?)", vec, threshold, limit).Scan(ctx, &data)
	if err != nil {
		logger().Infow("query fail", "err", err)
	}
	return
}

// Search fetches the best matching documents for a subject and renders
// them as markdown, or a fixed notice when nothing crosses the threshold.
func (s *kbStore) Search(ctx context.Context, subject string) (string, error) {
	docs, err := s.MatchDocuments(ctx, MatchSpec{Question: subject})
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return noMatchText, nil
	}
	for _, doc := range docs {
		logger().Infow("hit", "id", doc.ID, "title", doc.Title, "heading", doc.Heading, "sim", doc.Similarity)
	}
	return docs.MarkdownText(), nil
}

func validHead(rec []string) bool {
	return len(rec) >= len(kbHeads) && rec[0] == kbHeads[0] && rec[1] == kbHeads[1] && rec[2] == kbHeads[2]
}

func (s *kbStore) ImportFromCSV(ctx context.Context, r io.Reader) error {
	rd := csv.NewReader(r)
	rec, err := rd.Read()
	if err != nil {
		return err
	}
	if !validHead(rec) {
		return fmt.Errorf("invalid csv head: %+v", rec)
	}
	var idx int
	for {
		row, err := rd.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		idx++
		if len(row) < 3 || len(row[0]) == 0 || len(row[1]) == 0 {
			return fmt.Errorf("invalid csv row #%d: %+v", idx, row)
		}
		err = s.importLine(ctx, row[0], row[1], row[2])
		if err != nil {
			return err
		}
	}
}

func (s *kbStore) importLine(ctx context.Context, title, heading, content string) error {
	doc := new(kb.Document)
	content = replText.Replace(content)
	err := dbGet(ctx, s.w.db, doc, "corpus = ? AND title = ? AND heading = ?",
		settings.Current.CorpusID, title, heading)
	if err != nil {
		_, err = s.CreateDocument(ctx, kb.DocumentBasic{
			Corpus:  settings.Current.CorpusID,
			Title:   title,
			Heading: heading,
			Content: content,
		})
	} else {
		err = s.UpdateDocument(ctx, doc.StringID(), kb.DocumentSet{
			Content: &content,
		})
	}
	return err
}

func (s *kbStore) ExportDocuments(ctx context.Context, ea ExportArg) error {
	data, _, err := s.ListDocument(ctx, ea.Spec)
	if err != nil {
		return err
	}

	if ea.Format == "csv" {
		return documentsToCSV(data, ea.Out)
	}

	enc := json.NewEncoder(ea.Out)
	for _, doc := range data {
		line := struct {
			Title   string `json:"title"`
			Heading string `json:"heading"`
			Content string `json:"content"`
		}{doc.Title, doc.Heading, doc.Content}
		if err = enc.Encode(&line); err != nil {
			return err
		}
	}

	return nil
}

func documentsToCSV(data kb.Documents, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(kbHeads); err != nil {
		return err
	}

	for _, doc := range data {
		if err := cw.Write([]string{doc.Title, doc.Heading, doc.Content}); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}
