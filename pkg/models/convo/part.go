package convo

// part types
const (
	PartText  = "input_text"
	PartImage = "input_image"
)

// ContentPart 消息片段: 文本或图片(data URI)
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type ContentParts []ContentPart

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

func ImagePart(uri string) ContentPart {
	return ContentPart{Type: PartImage, ImageURL: uri}
}
