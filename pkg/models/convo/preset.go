package convo

type Message struct {
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	Content string `json:"content" yaml:"content"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
}

type Preset struct {
	SystemPrompt string   `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	ToolsPrompt  string   `json:"toolsPrompt,omitempty" yaml:"toolsPrompt,omitempty"`
	Welcome      *Message `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	Model        string   `json:"model,omitempty" yaml:"model,omitempty"`
	MaxTokens    int      `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Temperature  float32  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}
