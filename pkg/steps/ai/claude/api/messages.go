package api

type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type MessageRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Role       string    `json:"role"`
	Content    []Content `json:"content"`
	Model      string    `json:"model"`
	StopReason string    `json:"stop_reason"`
	Usage      Usage     `json:"usage"`
}

// Text concatenates the text blocks of the response.
func (r *MessageResponse) Text() string {
	ret := ""
	for _, c := range r.Content {
		if c.Type == ContentTypeText {
			ret += c.Text
		}
	}
	return ret
}

type Model struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type ModelList struct {
	Data    []Model `json:"data"`
	HasMore bool    `json:"has_more"`
}
