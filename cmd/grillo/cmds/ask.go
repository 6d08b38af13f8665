package cmds

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/grillo/pkg/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewAskCommand() *cobra.Command {
	var agentMode bool

	cmd := &cobra.Command{
		Use:   "ask <prompt...>",
		Short: "Ask a single question without storing a session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(events.NullSink{})
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			reply, err := app.Orchestrator.Ask(cmd.Context(), strings.Join(args, " "), agentMode)
			if err != nil {
				return errors.Wrap(err, "completion failed")
			}

			if events.DefaultPrinterOptions().Markdown {
				if rendered, err := glamour.Render(reply, "dark"); err == nil {
					reply = rendered
				} else {
					log.Debug().Err(err).Msg("could not render markdown")
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(reply, "\n"))
			return err
		},
	}

	cmd.Flags().BoolVar(&agentMode, "agent", false, "Use the agent system prompt")
	return cmd
}
