package orchestrator

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/pkg/errors"
)

const DefaultAssistantName = "Grillo"

const defaultChatPrompt = `You are {{ .Name }}, a helpful AI assistant in your editor.`

const defaultAgentPrompt = `You are {{ .Name }}, an AI assistant in your editor.
You are in AGENT MODE. You can edit files.
If you want to create or edit a file, output the content in a code block like this:
<write_file path="path/to/file.txt">
CONTENT HERE
</write_file>

Always use forward slashes for paths. relative paths are relative to workspace root.`

// PromptData is passed to the system prompt templates.
type PromptData struct {
	Name      string
	Workspace string
}

// Prompts renders the two system prompts: the short chat framing and the
// agent prompt describing the write_file directive.
type Prompts struct {
	chat  *template.Template
	agent *template.Template
	data  PromptData
}

func NewPrompts(ps *settings.PromptSettings, workspace string) (*Prompts, error) {
	chatSrc, agentSrc, name := defaultChatPrompt, defaultAgentPrompt, DefaultAssistantName
	if ps != nil {
		if strings.TrimSpace(ps.Chat) != "" {
			chatSrc = ps.Chat
		}
		if strings.TrimSpace(ps.Agent) != "" {
			agentSrc = ps.Agent
		}
		if ps.Name != "" {
			name = ps.Name
		}
	}

	chat, err := template.New("chat").Funcs(sprig.TxtFuncMap()).Parse(chatSrc)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse chat prompt")
	}
	agent, err := template.New("agent").Funcs(sprig.TxtFuncMap()).Parse(agentSrc)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse agent prompt")
	}

	return &Prompts{
		chat:  chat,
		agent: agent,
		data:  PromptData{Name: name, Workspace: workspace},
	}, nil
}

// DefaultPrompts never fails since the built-in templates are known to parse.
func DefaultPrompts() *Prompts {
	p, err := NewPrompts(nil, "")
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Prompts) System(agentMode bool) (string, error) {
	t := p.chat
	if agentMode {
		t = p.agent
	}
	var sb strings.Builder
	if err := t.Execute(&sb, p.data); err != nil {
		return "", errors.Wrapf(err, "could not render %s prompt", t.Name())
	}
	return sb.String(), nil
}
