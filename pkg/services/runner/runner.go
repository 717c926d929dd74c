// Package runner drives one tutoring turn against the language model,
// with an optional knowledge base tool the model may call.
package runner

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/liut/tutoria/pkg/models/convo"
	"github.com/liut/tutoria/pkg/services/mcputils"
)

// ToolNameKBSearch ...
const ToolNameKBSearch = "kb-search"

const dftInstructions = "Eres un tutor paciente y claro. Ayuda al alumno a entender, no le des solo la respuesta."

// Retriever looks up study material for a subject.
type Retriever interface {
	Search(ctx context.Context, subject string) (string, error)
}

// Runner executes one conversation turn and returns the raw answer.
type Runner interface {
	Run(ctx context.Context, turns convo.Turns) (Output, error)
}

type Config struct {
	Model        string
	Instructions string
	Temperature  float32
	MaxTokens    int

	// optional, enables the knowledge base tool
	Retriever Retriever
}

// New build a model backed Runner
func New(cfg Config, oc *openai.Client) Runner {
	if len(cfg.Instructions) == 0 {
		cfg.Instructions = dftInstructions
	}
	s := &oaiRunner{oc: oc, cfg: cfg}
	if cfg.Retriever != nil {
		s.tools = append(s.tools,
			mcp.NewTool(ToolNameKBSearch,
				mcp.WithDescription("Search knowledge base with text of keywords or subject"),
				mcp.WithString("subject", mcp.Required(), mcp.Description("text of keywords or subject")),
			),
		)
	}
	return s
}

type oaiRunner struct {
	oc    *openai.Client
	cfg   Config
	tools []mcp.Tool
}

func (s *oaiRunner) Run(ctx context.Context, turns convo.Turns) (Output, error) {
	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: s.cfg.Instructions,
	}}
	for i := range turns {
		messages = append(messages, turnToMessage(&turns[i]))
	}

	ccr := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
	if len(s.tools) > 0 {
		tools, err := mcputils.MCPToolsToOpenAITools(s.tools)
		if err != nil {
			return Output{}, err
		}
		ccr.Tools = tools
	}

	res, err := s.oc.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return Output{}, err
	}
	if len(res.Choices) == 0 {
		return Output{}, errors.New("empty choices")
	}

	msg := res.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		return s.runTools(ctx, ccr, msg)
	}
	return TextOutput(msg.Content), nil
}

// runTools answers the pending tool calls and asks for one follow-up
// completion with the results in context.
func (s *oaiRunner) runTools(ctx context.Context, ccr openai.ChatCompletionRequest,
	msg openai.ChatCompletionMessage) (Output, error) {
	ccr.Messages = append(ccr.Messages, openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		Content:   msg.Content,
		ToolCalls: msg.ToolCalls,
	})
	for _, tc := range msg.ToolCalls {
		if tc.Type != openai.ToolTypeFunction {
			continue
		}
		logger().Infow("tool call", "id", tc.ID, "fn", tc.Function.Name)
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			logger().Infow("unmarshal arguments fail", "args", tc.Function.Arguments, "err", err)
			continue
		}
		var content mcp.Content
		var err error
		switch tc.Function.Name {
		case ToolNameKBSearch:
			content, err = s.callKBSearch(ctx, args)
		default:
			err = errors.New("unknown tool: " + tc.Function.Name)
		}
		if err != nil {
			logger().Infow("tool call fail", "fn", tc.Function.Name, "err", err)
			content = mcp.NewTextContent("tool call failed: " + err.Error())
		}
		ccr.Messages = append(ccr.Messages, mcpContentToChatMessage(tc.ID, content))
	}

	res, err := s.oc.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return Output{}, err
	}
	if len(res.Choices) == 0 {
		return Output{}, errors.New("empty choices")
	}
	return TextOutput(res.Choices[0].Message.Content), nil
}

func (s *oaiRunner) callKBSearch(ctx context.Context, args map[string]any) (mcp.Content, error) {
	subjectArg, ok := args["subject"]
	if !ok {
		return nil, errors.New("missing required argument: subject")
	}
	subject, ok := subjectArg.(string)
	if !ok {
		return nil, errors.New("subject argument must be a string")
	}

	text, err := s.cfg.Retriever.Search(ctx, subject)
	if err != nil {
		return nil, err
	}
	return mcp.NewTextContent(text), nil
}

func turnToMessage(turn *convo.Turn) openai.ChatCompletionMessage {
	if turn.Role == convo.RoleAssistant || len(turn.Parts) == 0 {
		return openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content}
	}
	cm := openai.ChatCompletionMessage{Role: turn.Role}
	for _, p := range turn.Parts {
		switch p.Type {
		case convo.PartImage:
			cm.MultiContent = append(cm.MultiContent, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL},
			})
		default:
			cm.MultiContent = append(cm.MultiContent, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		}
	}
	return cm
}

func mcpContentToChatMessage(id string, mc mcp.Content) openai.ChatCompletionMessage {
	content := ""
	if mc != nil {
		if b, err := json.Marshal(mc); err == nil {
			content = string(b)
		}
	}

	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    content,
		ToolCallID: id,
	}
}
