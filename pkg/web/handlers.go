package web

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/marcsv/go-binder/binder"

	"github.com/liut/tutoria/pkg/models/convo"
	"github.com/liut/tutoria/pkg/services/ingest"
	"github.com/liut/tutoria/pkg/services/runner"
)

const (
	welcomeText = "¡Hola! Soy tu tutor virtual. ¿En qué puedo ayudarte hoy?"

	maxUploadMemory = 32 << 20
)

type ChatRequest struct {
	Pregunta  string `json:"pregunta"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Respuesta string `json:"respuesta"`
	SessionID string `json:"session_id"`
}

func (s *server) postChat(w http.ResponseWriter, r *http.Request) {
	var param ChatRequest
	var attachments []ingest.Attachment

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			apiFail(w, r, 400, err)
			return
		}
		param.Pregunta = r.FormValue("pregunta")
		param.SessionID = r.FormValue("session_id")
		var err error
		attachments, err = readUploads(r.MultipartForm.File["files"])
		if err != nil {
			apiFail(w, r, 400, err)
			return
		}
	} else {
		if err := binder.BindBody(r, &param); err != nil {
			apiFail(w, r, 400, err)
			return
		}
	}

	parts, notes, err := ingest.Process(attachments)
	if err != nil {
		var ae *ingest.AttachmentError
		if errors.As(err, &ae) {
			apiFail(w, r, 500, msgPdfFail(ae.Filename))
			return
		}
		apiFail(w, r, 500, err)
		return
	}

	composed, err := ingest.Compose(param.Pregunta, parts)
	if err != nil {
		apiFail(w, r, 400, msgEmptyQuestion)
		return
	}

	ctx := r.Context()
	sess := s.sessions.GetOrCreate(param.SessionID)
	logger().Infow("chat", "sid", sess.GetID(), "parts", len(composed),
		"files", len(attachments), "ip", r.RemoteAddr)

	if err = sess.AppendTurn(ctx, convo.UserTurn(composed)); err != nil {
		logger().Infow("append user turn fail", "sid", sess.GetID(), "err", err)
	}
	s.audit(ctx, sess.GetID(), convo.RoleUser, auditText(param.Pregunta, notes))

	turns, err := sess.ListTurns(ctx)
	if err != nil {
		logger().Infow("list turns fail", "sid", sess.GetID(), "err", err)
		turns = convo.Turns{*convo.UserTurn(composed)}
	}

	out, err := s.rn.Run(ctx, turns)
	if err != nil {
		logger().Infow("run fail", "sid", sess.GetID(), "err", err)
		render.Status(r, 500)
		render.JSON(w, r, ChatResponse{
			Respuesta: classifyRunError(err),
			SessionID: sess.GetID(),
		})
		return
	}
	answer := runner.Flatten(out)

	s.audit(ctx, sess.GetID(), convo.RoleAssistant, answer)
	if err = sess.AppendTurn(ctx, convo.AssistantTurn(answer)); err != nil {
		logger().Infow("append assistant turn fail", "sid", sess.GetID(), "err", err)
	}

	render.JSON(w, r, ChatResponse{Respuesta: answer, SessionID: sess.GetID()})
}

// audit mirrors a conversation line into the audit sink. Failures are
// logged and never interrupt the chat turn.
func (s *server) audit(ctx context.Context, sid, role, content string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Write(ctx, sid, role, content); err != nil {
		logger().Infow("audit fail", "sid", sid, "role", role, "err", err)
	}
}

func readUploads(fhs []*multipart.FileHeader) (out []ingest.Attachment, err error) {
	for _, fh := range fhs {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, ingest.Attachment{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return
}

func auditText(question string, notes []string) string {
	var b strings.Builder
	b.WriteString(question)
	for _, note := range notes {
		b.WriteString(" (")
		b.WriteString(note)
		b.WriteString(")")
	}
	return strings.TrimSpace(b.String())
}

func (s *server) getWelcome(w http.ResponseWriter, r *http.Request) {
	msg := new(convo.Message)

	if s.preset.Welcome != nil {
		msg.Content = s.preset.Welcome.Content
	} else {
		msg.Content = welcomeText
	}

	msg.ID = s.sessions.GetOrCreate("").GetID()
	apiOk(w, r, msg)
}

func (s *server) getHistory(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	sess := s.sessions.GetOrCreate(sid)
	data, err := sess.ListTurns(r.Context())
	if err != nil {
		apiFail(w, r, 500, err)
		return
	}
	apiOk(w, r, data, 0)
}
