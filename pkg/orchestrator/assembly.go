package orchestrator

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
)

// DisplayText is the user turn as shown and stored: the typed text plus a
// note listing attachment names.
func DisplayText(text string, attachments []conversation.Attachment) string {
	if len(attachments) == 0 {
		return text
	}
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Name)
	}
	return text + "\n[Attached: " + strings.Join(names, ", ") + "]"
}

// PromptContent builds the content of the outgoing user message. With at
// least one image the result is a block sequence; otherwise text attachments
// are appended to the plain string.
func PromptContent(text string, attachments []conversation.Attachment) conversation.Content {
	hasImages := false
	for _, a := range attachments {
		if a.IsImage() {
			hasImages = true
			break
		}
	}

	if !hasImages {
		var sb strings.Builder
		sb.WriteString(text)
		for _, a := range attachments {
			fmt.Fprintf(&sb, "\n\n--- File: %s ---\n%s\n---", a.Name, a.Content)
		}
		return conversation.NewTextContent(sb.String())
	}

	blocks := make([]conversation.ContentBlock, 0, len(attachments)+1)
	if text != "" {
		blocks = append(blocks, conversation.NewTextBlock(text))
	}
	for _, a := range attachments {
		if a.IsImage() {
			blocks = append(blocks, conversation.NewImageBlock(a.Data))
		} else {
			blocks = append(blocks, conversation.NewTextBlock(fmt.Sprintf("File: %s\n%s", a.Name, a.Content)))
		}
	}
	return conversation.NewBlockContent(blocks...)
}

// BuildMessages returns system prompt, stored history, then the new user
// message.
func BuildMessages(system string, history []conversation.Message, user conversation.Content) []conversation.Message {
	ret := make([]conversation.Message, 0, len(history)+2)
	ret = append(ret, conversation.NewChatMessage(conversation.RoleSystem, system))
	ret = append(ret, conversation.Conversation(history).Replayed()...)
	ret = append(ret, conversation.Message{Role: conversation.RoleUser, Content: user})
	return ret
}
