package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/events"
	"github.com/go-go-golems/grillo/pkg/sessions"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
)

func NewSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored chat sessions",
	}
	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsShowCommand())
	cmd.AddCommand(newSessionsDeleteCommand())
	cmd.AddCommand(newSessionsClearCommand())
	cmd.AddCommand(newSessionsExportCommand())
	return cmd
}

func withApp(f func(cmd *cobra.Command, args []string, app *App) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := NewApp(events.NullSink{})
		if err != nil {
			return err
		}
		defer func() {
			_ = app.Close()
		}()
		return f(cmd, args, app)
	}
}

func printSessions(ctx context.Context, w io.Writer, app *App, currentID string) error {
	list, err := app.Store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no sessions")
		return err
	}
	for _, s := range list {
		marker := " "
		if s.ID == currentID {
			marker = "*"
		}
		_, err := fmt.Fprintf(w, "%s %s  %s  %-33s  %s\n",
			marker, s.ID, s.Timestamp.Local().Format("2006-01-02 15:04"), s.Title, s.Preview)
		if err != nil {
			return err
		}
	}
	return nil
}

func newSessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recent first",
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			return printSessions(cmd.Context(), cmd.OutOrStdout(), app, "")
		}),
	}
}

func newSessionsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			ctx := cmd.Context()
			if _, ok, err := app.Store.GetSession(ctx, args[0]); err != nil {
				return err
			} else if !ok {
				return errors.Errorf("session %s not found", args[0])
			}
			messages, err := app.Store.GetMessages(ctx, args[0])
			if err != nil {
				return err
			}
			options := events.DefaultPrinterOptions()
			return events.PrintEvent(cmd.OutOrStdout(), events.NewInitHistoryEvent(events.EventMetadata{}, messages), options)
		}),
	}
}

func newSessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id...>",
		Short: "Delete sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			for _, id := range args {
				if err := app.Store.DeleteSession(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func confirm(query string) (bool, error) {
	ui := &input.UI{
		Writer: os.Stderr,
		Reader: os.Stdin,
	}
	answer, err := ui.Ask(query+" [y/n]", &input.Options{
		Default:  "n",
		Required: true,
		Loop:     true,
		ValidateFunc: func(answer string) error {
			switch answer {
			case "y", "Y", "n", "N":
				return nil
			default:
				return fmt.Errorf("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

func newSessionsClearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored session",
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			if !yes {
				ok, err := confirm("Delete all sessions?")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			return app.Store.ClearAll(cmd.Context())
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// ExportFileName derives a file name from the session title.
func ExportFileName(s conversation.Session, format sessions.ExportFormat) string {
	name := strings.Trim(strcase.ToKebab(s.Title), "-.")
	if name == "" {
		name = s.ID
	}
	return name + "." + string(format)
}

func newSessionsExportCommand() *cobra.Command {
	var format string
	var outputDir string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a session as json or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, app *App) error {
			ctx := cmd.Context()
			f := sessions.ExportFormat(format)
			session, ok, err := app.Store.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("session %s not found", args[0])
			}

			if stdout {
				return app.Store.Export(ctx, session.ID, cmd.OutOrStdout(), f)
			}

			path := filepath.Join(outputDir, ExportFileName(session, f))
			out, err := os.Create(path)
			if err != nil {
				return errors.Wrapf(err, "could not create %s", path)
			}
			if err := app.Store.Export(ctx, session.ID, out, f); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", session.ID, path)
			return err
		}),
	}
	cmd.Flags().StringVar(&format, "format", string(sessions.ExportFormatYAML), "Export format (json, yaml)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory to write the export to")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write to stdout instead of a file")
	return cmd
}
