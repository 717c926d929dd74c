package convo

import (
	"encoding/json"
	"time"
)

// roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn 会话中的一条消息. User turns carry content parts, assistant turns
// carry the flattened text. Immutable once appended to a session.
type Turn struct {
	Time int64 `json:"time,omitempty"`

	Role  string       `json:"role"`
	Parts ContentParts `json:"parts,omitempty"`

	// flattened answer text, assistant only
	Content string `json:"content,omitempty"`
}

type Turns []Turn

func UserTurn(parts ContentParts) *Turn {
	return &Turn{Time: time.Now().Unix(), Role: RoleUser, Parts: parts}
}

func AssistantTurn(text string) *Turn {
	return &Turn{Time: time.Now().Unix(), Role: RoleAssistant, Content: text}
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (z *Turn) MarshalBinary() (data []byte, err error) {
	data, err = json.Marshal(z)
	return
}

// UnmarshalBinary unmarshal a binary representation of itself. for redis result.Scan
func (z *Turn) UnmarshalBinary(data []byte) error {
	var t Turn
	err := json.Unmarshal(data, &t)
	if err == nil {
		*z = t
	}
	return err
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (z Turns) MarshalBinary() (data []byte, err error) {
	data, err = json.Marshal(z)
	return
}

// UnmarshalBinary unmarshal a binary representation of itself. for redis result.Scan
func (z *Turns) UnmarshalBinary(data []byte) error {
	var t Turns
	err := json.Unmarshal(data, &t)
	if err == nil {
		*z = t
	}
	return err
}
