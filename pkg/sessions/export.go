package sessions

import (
	"context"
	"encoding/json"
	"io"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatYAML ExportFormat = "yaml"
)

type Export struct {
	Session  conversation.Session   `json:"session" yaml:"session"`
	Messages []conversation.Message `json:"messages" yaml:"messages"`
}

// Export writes the session metadata and its messages to w.
func (s *Store) Export(ctx context.Context, id string, w io.Writer, format ExportFormat) error {
	session, ok, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("session %s not found", id)
	}
	messages, err := s.GetMessages(ctx, id)
	if err != nil {
		return err
	}
	doc := Export{Session: session, Messages: messages}

	switch format {
	case ExportFormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(doc), "could not write json export")
	case ExportFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "could not write yaml export")
		}
		return enc.Close()
	default:
		return errors.Errorf("unknown export format %q", format)
	}
}
