package claude

import (
	"encoding/base64"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/claude/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// messagesToClaude splits out the system prompt and converts the remaining
// turns. Consecutive messages of the same role are merged and leading
// assistant turns are dropped, as the Messages API requires the conversation
// to start with a user turn and alternate.
func messagesToClaude(messages []conversation.Message) (string, []api.Message, error) {
	var system []string
	ret := []api.Message{}

	for _, m := range conversation.Conversation(messages).Replayed() {
		if m.Role == conversation.RoleSystem {
			system = append(system, m.Content.String())
			continue
		}
		content, err := contentToClaude(m.Content)
		if err != nil {
			return "", nil, err
		}
		if len(ret) == 0 && m.Role == conversation.RoleAssistant {
			log.Trace().Msg("dropping leading assistant message")
			continue
		}
		if len(ret) > 0 && ret[len(ret)-1].Role == string(m.Role) {
			ret[len(ret)-1].Content = append(ret[len(ret)-1].Content, content...)
			continue
		}
		ret = append(ret, api.Message{Role: string(m.Role), Content: content})
	}

	return strings.Join(system, "\n\n"), ret, nil
}

func contentToClaude(c conversation.Content) ([]api.Content, error) {
	if !c.IsMultimodal() {
		return []api.Content{api.NewTextContent(c.Text)}, nil
	}
	ret := make([]api.Content, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		switch b.Type {
		case conversation.ContentTypeText:
			ret = append(ret, api.NewTextContent(b.Text))
		case conversation.ContentTypeImage:
			mediaType, data, err := conversation.ParseDataURI(b.Image)
			if err != nil {
				return nil, errors.Wrap(err, "could not convert image block")
			}
			ret = append(ret, api.NewImageContent(mediaType, base64.StdEncoding.EncodeToString(data)))
		}
	}
	return ret, nil
}
