package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liut/tutoria/pkg/models/convo"
	"github.com/liut/tutoria/pkg/services/runner"
	"github.com/liut/tutoria/pkg/services/stores"
)

type stubRunner struct {
	out runner.Output
	err error

	gotTurns convo.Turns
}

func (sr *stubRunner) Run(ctx context.Context, turns convo.Turns) (runner.Output, error) {
	sr.gotTurns = turns
	return sr.out, sr.err
}

type auditLine struct {
	SID, Role, Content string
}

type stubAuditor struct {
	lines []auditLine
	err   error
}

func (sa *stubAuditor) Write(ctx context.Context, sid, role, content string) error {
	if sa.err != nil {
		return sa.err
	}
	sa.lines = append(sa.lines, auditLine{sid, role, content})
	return nil
}

func newTestServer(rn runner.Runner, aud Auditor) *server {
	return New(Config{
		Addr:     ":0",
		Runner:   rn,
		Sessions: stores.NewMemorySessions(),
		Auditor:  aud,
	}).(*server)
}

func doJSON(t *testing.T, s *server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ar.ServeHTTP(w, req)
	return w
}

func TestPostChatJSON(t *testing.T) {
	rn := &stubRunner{out: runner.TextOutput("claro, te explico")}
	aud := &stubAuditor{}
	s := newTestServer(rn, aud)

	w := doJSON(t, s, http.MethodPost, "/api/chat", ChatRequest{Pregunta: "¿Qué es una derivada?"})
	require.Equal(t, 200, w.Code)

	var res ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "claro, te explico", res.Respuesta)
	require.NotEmpty(t, res.SessionID)

	// the runner saw the question as the first content part
	require.NotEmpty(t, rn.gotTurns)
	first := rn.gotTurns[0]
	require.Len(t, first.Parts, 1)
	assert.Equal(t, convo.PartText, first.Parts[0].Type)
	assert.Equal(t, "¿Qué es una derivada?", first.Parts[0].Text)

	// both lines audited
	require.Len(t, aud.lines, 2)
	assert.Equal(t, auditLine{res.SessionID, convo.RoleUser, "¿Qué es una derivada?"}, aud.lines[0])
	assert.Equal(t, auditLine{res.SessionID, convo.RoleAssistant, "claro, te explico"}, aud.lines[1])

	// both turns kept in the session
	turns, err := s.sessions.GetOrCreate(res.SessionID).ListTurns(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, convo.RoleAssistant, turns[1].Role)
	assert.Equal(t, "claro, te explico", turns[1].Content)
}

func TestPostChatKeepsSession(t *testing.T) {
	rn := &stubRunner{out: runner.TextOutput("sigo aquí")}
	s := newTestServer(rn, nil)

	w := doJSON(t, s, http.MethodPost, "/api/chat",
		ChatRequest{Pregunta: "primera", SessionID: "alumno-3"})
	require.Equal(t, 200, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/chat",
		ChatRequest{Pregunta: "segunda", SessionID: "alumno-3"})
	require.Equal(t, 200, w.Code)

	var res ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "alumno-3", res.SessionID)

	// second call runs with the prior exchange in context
	require.Len(t, rn.gotTurns, 3)
	assert.Equal(t, convo.RoleUser, rn.gotTurns[0].Role)
	assert.Equal(t, convo.RoleAssistant, rn.gotTurns[1].Role)
	assert.Equal(t, convo.RoleUser, rn.gotTurns[2].Role)
}

func TestPostChatEmptyQuestion(t *testing.T) {
	s := newTestServer(&stubRunner{}, nil)

	w := doJSON(t, s, http.MethodPost, "/api/chat", ChatRequest{Pregunta: "  "})
	require.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), msgEmptyQuestion)
}

func TestPostChatRunnerError(t *testing.T) {
	rn := &stubRunner{err: errors.New("dial tcp: connection refused")}
	aud := &stubAuditor{}
	s := newTestServer(rn, aud)

	w := doJSON(t, s, http.MethodPost, "/api/chat",
		ChatRequest{Pregunta: "hola", SessionID: "err-1"})
	require.Equal(t, 500, w.Code)

	var res ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, msgConnFail, res.Respuesta)
	assert.Equal(t, "err-1", res.SessionID)

	// the failed answer is neither kept nor audited
	turns, err := s.sessions.GetOrCreate("err-1").ListTurns(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Len(t, aud.lines, 1)
	assert.Equal(t, convo.RoleUser, aud.lines[0].Role)
}

func TestPostChatAuditFailure(t *testing.T) {
	rn := &stubRunner{out: runner.TextOutput("todo bien")}
	aud := &stubAuditor{err: errors.New("pg down")}
	s := newTestServer(rn, aud)

	w := doJSON(t, s, http.MethodPost, "/api/chat",
		ChatRequest{Pregunta: "hola", SessionID: "aud-1"})
	require.Equal(t, 200, w.Code)

	var res ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "todo bien", res.Respuesta)

	// the turn survives even with the sink down
	turns, err := s.sessions.GetOrCreate("aud-1").ListTurns(context.Background())
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func multipartBody(t *testing.T, fields map[string]string, files []struct {
	name, ctype string
	data        []byte
}) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.ctype)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPostChatMultipartImage(t *testing.T) {
	rn := &stubRunner{out: runner.TextOutput("veo un triángulo")}
	aud := &stubAuditor{}
	s := newTestServer(rn, aud)

	body, ctype := multipartBody(t,
		map[string]string{"pregunta": "¿Qué figura es?", "session_id": "img-1"},
		[]struct {
			name, ctype string
			data        []byte
		}{{"figura.png", "image/png", []byte{0x89, 'P', 'N', 'G'}}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	s.ar.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)

	require.Len(t, rn.gotTurns, 1)
	parts := rn.gotTurns[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, convo.PartText, parts[0].Type)
	assert.Equal(t, convo.PartImage, parts[1].Type)
	assert.True(t, strings.HasPrefix(parts[1].ImageURL, "data:image/png;base64,"))

	// the audited user line names the attachment
	require.NotEmpty(t, aud.lines)
	assert.Equal(t, "¿Qué figura es? (Adjunto Imagen: figura.png)", aud.lines[0].Content)
}

func TestPostChatMultipartImageOnly(t *testing.T) {
	rn := &stubRunner{out: runner.TextOutput("es un círculo")}
	s := newTestServer(rn, nil)

	body, ctype := multipartBody(t, nil,
		[]struct {
			name, ctype string
			data        []byte
		}{{"circulo.png", "image/png", []byte{1, 2, 3}}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	s.ar.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)

	require.Len(t, rn.gotTurns, 1)
	require.Len(t, rn.gotTurns[0].Parts, 1)
	assert.Equal(t, convo.PartImage, rn.gotTurns[0].Parts[0].Type)
}

func TestPostChatCorruptPDF(t *testing.T) {
	s := newTestServer(&stubRunner{}, nil)

	body, ctype := multipartBody(t,
		map[string]string{"pregunta": "resume esto"},
		[]struct {
			name, ctype string
			data        []byte
		}{{"roto.pdf", "application/pdf", []byte("no soy un pdf")}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	s.ar.ServeHTTP(w, req)
	require.Equal(t, 500, w.Code)
	assert.Contains(t, w.Body.String(), "Error al procesar el archivo PDF: roto.pdf.")
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubRunner{}, nil)
	w := doJSON(t, s, http.MethodGet, "/api/health", nil)
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestWelcome(t *testing.T) {
	s := newTestServer(&stubRunner{}, nil)
	w := doJSON(t, s, http.MethodGet, "/api/welcome", nil)
	require.Equal(t, 200, w.Code)

	var res struct {
		Data convo.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, welcomeText, res.Data.Content)
	assert.NotEmpty(t, res.Data.ID)
}

func TestHistory(t *testing.T) {
	rn := &stubRunner{out: runner.TextOutput("vale")}
	s := newTestServer(rn, nil)

	w := doJSON(t, s, http.MethodPost, "/api/chat",
		ChatRequest{Pregunta: "hola", SessionID: "hist-1"})
	require.Equal(t, 200, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/history/hist-1", nil)
	require.Equal(t, 200, w.Code)

	var res struct {
		Data convo.Turns `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Data, 2)
	assert.Equal(t, "vale", res.Data[1].Content)
}

func TestCORS(t *testing.T) {
	s := newTestServer(&stubRunner{}, nil)

	// default allow list is "*", any origin is echoed back
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	s.ar.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	// preflight is answered without reaching a handler
	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	s.ar.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPing(t *testing.T) {
	s := newTestServer(&stubRunner{}, nil)
	w := doJSON(t, s, http.MethodGet, "/ping", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "Pong\n", w.Body.String())
}
