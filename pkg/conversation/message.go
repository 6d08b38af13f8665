package conversation

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleError is only ever shown to the user. It is never persisted and never
	// sent to a provider.
	RoleError Role = "error"
)

// IsReplayed reports whether messages with this role are part of the
// conversation sent back to the provider.
func (r Role) IsReplayed() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	case RoleError:
		return false
	}
	return false
}

type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
)

// ContentBlock is one element of a multimodal message. Image blocks carry a
// data URI (data:image/png;base64,...).
type ContentBlock struct {
	Type  ContentType `json:"type" yaml:"type"`
	Text  string      `json:"text,omitempty" yaml:"text,omitempty"`
	Image string      `json:"image,omitempty" yaml:"image,omitempty"`
}

func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

func NewImageBlock(dataURI string) ContentBlock {
	return ContentBlock{Type: ContentTypeImage, Image: dataURI}
}

// Content is either plain text or an ordered list of blocks. A non-nil Blocks
// slice means the content is multimodal, even if it holds only text blocks.
type Content struct {
	Text   string
	Blocks []ContentBlock
}

func NewTextContent(text string) Content {
	return Content{Text: text}
}

func NewBlockContent(blocks ...ContentBlock) Content {
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	return Content{Blocks: blocks}
}

func (c Content) IsMultimodal() bool {
	return c.Blocks != nil
}

// String flattens the content to text. Images are rendered as a placeholder.
func (c Content) String() string {
	if !c.IsMultimodal() {
		return c.Text
	}
	parts := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		switch b.Type {
		case ContentTypeText:
			parts = append(parts, b.Text)
		case ContentTypeImage:
			parts = append(parts, "[image]")
		}
	}
	return strings.Join(parts, "\n")
}

func (c Content) IsEmpty() bool {
	if c.IsMultimodal() {
		return len(c.Blocks) == 0
	}
	return c.Text == ""
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsMultimodal() {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	switch {
	case trimmed == "null":
		*c = Content{}
		return nil
	case strings.HasPrefix(trimmed, "["):
		var blocks []ContentBlock
		if err := json.Unmarshal(b, &blocks); err != nil {
			return errors.Wrap(err, "could not decode content blocks")
		}
		*c = NewBlockContent(blocks...)
		return nil
	default:
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "could not decode content text")
		}
		*c = NewTextContent(s)
		return nil
	}
}

func (c Content) MarshalYAML() (interface{}, error) {
	if c.IsMultimodal() {
		return c.Blocks, nil
	}
	return c.Text, nil
}

func (c *Content) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var blocks []ContentBlock
		if err := value.Decode(&blocks); err != nil {
			return err
		}
		*c = NewBlockContent(blocks...)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*c = NewTextContent(s)
	return nil
}

type Message struct {
	Role    Role    `json:"role" yaml:"role"`
	Content Content `json:"content" yaml:"content"`
}

func NewChatMessage(role Role, text string) Message {
	return Message{Role: role, Content: NewTextContent(text)}
}

type Conversation []Message

// Replayed returns the messages that are sent to a provider, dropping
// display-only roles.
func (c Conversation) Replayed() Conversation {
	ret := make(Conversation, 0, len(c))
	for _, m := range c {
		if m.Role.IsReplayed() {
			ret = append(ret, m)
		}
	}
	return ret
}
