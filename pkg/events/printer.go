package events

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type PrinterOptions struct {
	// Markdown renders assistant replies through glamour.
	Markdown bool
	// ShowSessions prints the session list whenever it changes.
	ShowSessions bool
	Style        string
}

// DefaultPrinterOptions renders markdown only when stdout is a terminal.
func DefaultPrinterOptions() PrinterOptions {
	return PrinterOptions{
		Markdown: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		Style:    "dark",
	}
}

// NewPrinterFunc returns a handler writing a readable rendition of every UI
// event to w.
func NewPrinterFunc(w io.Writer, options PrinterOptions) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJSON(msg.Payload)
		if err != nil {
			log.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable event")
			return nil
		}
		return PrintEvent(w, e, options)
	}
}

func PrintEvent(w io.Writer, e Event, options PrinterOptions) error {
	var err error
	switch e_ := e.(type) {
	case *EventAddMessage:
		err = printMessage(w, e_.Role, e_.Content, options)
	case *EventInitHistory:
		for _, m := range e_.History {
			if err = printMessage(w, m.Role, m.Content, options); err != nil {
				break
			}
		}
	case *EventUpdateSessionList:
		if !options.ShowSessions {
			return nil
		}
		for _, s := range e_.Sessions {
			marker := " "
			if s.ID == e_.CurrentID {
				marker = "*"
			}
			_, err = fmt.Fprintf(w, "%s %s  %s  %s\n", marker, s.ID, s.Timestamp.Format("2006-01-02 15:04"), s.Title)
			if err != nil {
				break
			}
		}
	case *EventUpdateModels:
		_, err = fmt.Fprintf(w, "models: %s\n", strings.Join(e_.Models, ", "))
	case *EventUpdateModelStatus:
		_, err = fmt.Fprintf(w, "model: %s\n", e_.Model)
	case *EventInitSettings:
		masked := *e_
		if masked.APIKey != "" {
			masked.APIKey = "********"
		}
		var b []byte
		b, err = yaml.Marshal(map[string]interface{}{
			"provider": masked.Provider,
			"baseUrl":  masked.BaseURL,
			"apiKey":   masked.APIKey,
			"models":   masked.Models,
		})
		if err == nil {
			_, err = w.Write(b)
		}
	default:
		log.Debug().Str("type", string(e.Type())).Msg("Ignoring event")
	}
	return err
}

func printMessage(w io.Writer, role conversation.Role, content conversation.Content, options PrinterOptions) error {
	text := content.String()
	if role == conversation.RoleAssistant && options.Markdown {
		style := options.Style
		if style == "" {
			style = "dark"
		}
		rendered, err := glamour.Render(text, style)
		if err != nil {
			log.Debug().Err(err).Msg("Could not render markdown")
		} else {
			text = rendered
		}
	}
	_, err := fmt.Fprintf(w, "[%s] %s\n", role, strings.TrimRight(text, "\n"))
	return err
}
