package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liut/tutoria/pkg/models/convo"
)

type stubRetriever struct {
	subjects []string
	text     string
}

func (sr *stubRetriever) Search(ctx context.Context, subject string) (string, error) {
	sr.subjects = append(sr.subjects, subject)
	return sr.text, nil
}

func testClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	occ := openai.DefaultConfig("test-key")
	occ.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(occ)
}

func completionWith(msg openai.ChatCompletionMessage) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "cc-1",
		Object:  "chat.completion",
		Choices: []openai.ChatCompletionChoice{{Message: msg}},
	}
}

func TestRunPlain(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	oc := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(completionWith(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant, Content: "una derivada mide el cambio",
		}))
	})

	rn := New(Config{Model: "gpt-4o", Instructions: "sé breve"}, oc)
	turns := convo.Turns{
		*convo.UserTurn(convo.ContentParts{convo.TextPart("¿qué es una derivada?")}),
	}
	out, err := rn.Run(context.Background(), turns)
	require.NoError(t, err)
	assert.Equal(t, "una derivada mide el cambio", Flatten(out))

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, gotReq.Messages[0].Role)
	assert.Equal(t, "sé breve", gotReq.Messages[0].Content)
	require.Len(t, gotReq.Messages[1].MultiContent, 1)
	assert.Equal(t, openai.ChatMessagePartTypeText, gotReq.Messages[1].MultiContent[0].Type)
	// no retriever, no tools advertised
	assert.Empty(t, gotReq.Tools)
}

func TestRunImageTurn(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	oc := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(completionWith(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant, Content: "es un triángulo",
		}))
	})

	rn := New(Config{Model: "gpt-4o"}, oc)
	turns := convo.Turns{
		*convo.UserTurn(convo.ContentParts{
			convo.TextPart("¿qué figura es?"),
			convo.ImagePart("data:image/png;base64,AAECAw=="),
		}),
	}
	_, err := rn.Run(context.Background(), turns)
	require.NoError(t, err)

	parts := gotReq.Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "data:image/png;base64,AAECAw==", parts[1].ImageURL.URL)
}

func TestRunWithToolCall(t *testing.T) {
	retr := &stubRetriever{text: "## Derivadas\n\nLa derivada mide..."}
	var calls int
	var secondReq openai.ChatCompletionRequest
	oc := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(completionWith(openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   "tc-1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      ToolNameKBSearch,
						Arguments: `{"subject":"derivadas"}`,
					},
				}},
			}))
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&secondReq))
		_ = json.NewEncoder(w).Encode(completionWith(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant, Content: "según el material, la derivada mide el cambio",
		}))
	})

	rn := New(Config{Model: "gpt-4o", Retriever: retr}, oc)
	turns := convo.Turns{
		*convo.UserTurn(convo.ContentParts{convo.TextPart("explícame las derivadas")}),
	}
	out, err := rn.Run(context.Background(), turns)
	require.NoError(t, err)
	assert.Equal(t, "según el material, la derivada mide el cambio", Flatten(out))

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"derivadas"}, retr.subjects)

	// follow-up carries the assistant tool call and the tool answer
	n := len(secondReq.Messages)
	require.GreaterOrEqual(t, n, 2)
	assert.NotEmpty(t, secondReq.Messages[n-2].ToolCalls)
	assert.Equal(t, openai.ChatMessageRoleTool, secondReq.Messages[n-1].Role)
	assert.Equal(t, "tc-1", secondReq.Messages[n-1].ToolCallID)
	assert.Contains(t, secondReq.Messages[n-1].Content, "Derivadas")
}
