package cmds

import (
	"fmt"

	"github.com/go-go-golems/grillo/pkg/events"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models offered by the configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(events.NullSink{})
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			models, err := app.Orchestrator.RefreshModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), m); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func NewTestConnectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Check that the configured provider endpoint is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(events.NullSink{})
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
			}()

			s := app.Manager.Current()
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			if !client.TestConnection(cmd.Context()) {
				return errors.Errorf("could not reach %s at %s", s.Provider, s.ActiveBaseURL())
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s at %s\n", s.Provider, s.ActiveBaseURL())
			return err
		},
	}
}
