// Package ingest turns uploaded attachments into conversation content
// parts and composes them with the user question into a single message.
package ingest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/liut/tutoria/pkg/models/convo"
)

const (
	typePDF   = "application/pdf"
	typeOctet = "application/octet-stream"
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ErrEmptyRequest marks a chat request without a question and without
// any usable attachment content.
var ErrEmptyRequest = errors.New("empty request")

// AttachmentError wraps a failure on one named attachment.
type AttachmentError struct {
	Filename string
	Err      error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q: %s", e.Filename, e.Err)
}

func (e *AttachmentError) Unwrap() error { return e.Err }

// Attachment is one uploaded file, fully read into memory.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// effectiveType resolves the type to act on. The declared type wins
// unless it is blank or the generic octet-stream, then the filename
// extension decides.
func effectiveType(a Attachment) string {
	ct := strings.TrimSpace(a.ContentType)
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	ct = strings.ToLower(ct)
	if len(ct) > 0 && ct != typeOctet {
		return ct
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(a.Filename))); len(byExt) > 0 {
		if idx := strings.IndexByte(byExt, ';'); idx >= 0 {
			byExt = byExt[:idx]
		}
		return strings.ToLower(strings.TrimSpace(byExt))
	}
	return typeOctet
}

// Process converts attachments into content parts, in the order given.
// PDFs become text parts carrying the extracted text, images become
// image parts with a data URI. Unsupported files are skipped. The notes
// record each accepted attachment for the audit trail.
func Process(attachments []Attachment) (parts convo.ContentParts, notes []string, err error) {
	for _, a := range attachments {
		switch ct := effectiveType(a); {
		case ct == typePDF:
			text, err := extractPDF(a.Data)
			if err != nil {
				logger().Infow("extract pdf fail", "name", a.Filename, "err", err)
				return nil, nil, &AttachmentError{Filename: a.Filename, Err: err}
			}
			body := fmt.Sprintf("Contenido del PDF adjunto ('%s'):\n---BEGIN PDF CONTENT---\n%s\n---END PDF CONTENT---",
				a.Filename, text)
			parts = append(parts, convo.TextPart(body))
			notes = append(notes, "Adjunto PDF: "+a.Filename)
		case imageTypes[ct]:
			uri := fmt.Sprintf("data:%s;base64,%s", ct, base64.StdEncoding.EncodeToString(a.Data))
			parts = append(parts, convo.ImagePart(uri))
			notes = append(notes, "Adjunto Imagen: "+a.Filename)
		default:
			logger().Infow("skip unsupported attachment", "name", a.Filename, "type", ct)
		}
	}
	return
}

// Compose builds the user message: the question text first, then the
// attachment parts in their upload order. A blank question is only
// acceptable when at least one attachment contributed a part.
func Compose(question string, parts convo.ContentParts) (convo.ContentParts, error) {
	question = strings.TrimSpace(question)
	if len(question) == 0 && len(parts) == 0 {
		return nil, ErrEmptyRequest
	}

	out := make(convo.ContentParts, 0, len(parts)+1)
	if len(question) > 0 {
		out = append(out, convo.TextPart(question))
	}
	out = append(out, parts...)
	return out, nil
}

func extractPDF(data []byte) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		pages = append(pages, extractPage(r, i))
	}
	return strings.Join(pages, "\n"), nil
}

// extractPage shields against panics inside the pdf parser, a broken
// page yields empty text instead of taking the request down.
func extractPage(r *pdf.Reader, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger().Infow("pdf page panic", "page", num, "rec", rec)
			text = ""
		}
	}()
	p := r.Page(num)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		logger().Debugw("pdf page text fail", "page", num, "err", err)
		return ""
	}
	return text
}
