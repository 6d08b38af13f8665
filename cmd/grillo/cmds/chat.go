package cmds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/events"
	"github.com/go-go-golems/grillo/pkg/orchestrator"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const chatHelp = `Commands:
  /new                start a new session
  /load <id>          switch to a session
  /delete <id>        delete a session
  /sessions           list sessions
  /agent              toggle agent mode (file writes)
  /attach <path>      attach a file to the next message
  /models             list the provider's models
  /settings           show provider settings
  /provider <name>    switch provider
  /quit               leave
`

func NewChatCommand() *cobra.Command {
	var agentMode bool
	var noMarkdown bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			router, err := events.NewEventRouter(events.WithVerbose(log.Debug().Enabled()))
			if err != nil {
				return err
			}

			options := events.DefaultPrinterOptions()
			if noMarkdown {
				options.Markdown = false
			}
			router.AddHandler("printer", events.TopicUI, events.NewPrinterFunc(cmd.OutOrStdout(), options))

			app, err := NewApp(router.Sink(events.TopicUI))
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.Warn().Err(err).Msg("could not close session storage")
				}
			}()

			repl := &chatREPL{
				app:       app,
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
				fs:        afero.NewOsFs(),
				agentMode: agentMode,
				sc:        &orchestrator.SessionContext{},
			}

			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.Go(func() error {
				return router.Run(ctx)
			})
			eg.Go(func() error {
				defer func() {
					_ = router.Close()
				}()
				select {
				case <-router.Running():
				case <-ctx.Done():
					return ctx.Err()
				}
				return repl.run(ctx)
			})
			return eg.Wait()
		},
	}

	cmd.Flags().BoolVar(&agentMode, "agent", false, "Start in agent mode")
	cmd.Flags().BoolVar(&noMarkdown, "no-markdown", false, "Do not render assistant replies as markdown")
	return cmd
}

type chatREPL struct {
	app         *App
	in          io.Reader
	out         io.Writer
	fs          afero.Fs
	agentMode   bool
	attachments []conversation.Attachment
	sc          *orchestrator.SessionContext
}

func (r *chatREPL) prompt() {
	mode := "chat"
	if r.agentMode {
		mode = "agent"
	}
	if len(r.attachments) > 0 {
		mode = fmt.Sprintf("%s +%d", mode, len(r.attachments))
	}
	_, _ = fmt.Fprintf(r.out, "%s> ", mode)
}

func (r *chatREPL) run(ctx context.Context) error {
	orch := r.app.Orchestrator
	if err := orch.Init(ctx, r.sc); err != nil {
		return err
	}
	if r.sc.CurrentID == "" {
		if err := orch.NewSession(ctx, r.sc); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for {
		r.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				_, _ = fmt.Fprintf(r.out, "error: %s\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		turn := orchestrator.UserTurn{Text: line, AgentMode: r.agentMode, Attachments: r.attachments}
		r.attachments = nil
		if err := orch.HandleUserTurn(ctx, r.sc, turn); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "could not read input")
	}
	return nil
}

func (r *chatREPL) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	orch := r.app.Orchestrator

	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		_, err := io.WriteString(r.out, chatHelp)
		return false, err
	case "/new":
		return false, orch.NewSession(ctx, r.sc)
	case "/load":
		return false, orch.LoadSession(ctx, r.sc, arg)
	case "/delete":
		return false, orch.DeleteSession(ctx, r.sc, arg)
	case "/sessions":
		return false, printSessions(ctx, r.out, r.app, r.sc.CurrentID)
	case "/agent":
		r.agentMode = !r.agentMode
		_, err := fmt.Fprintf(r.out, "agent mode: %v\n", r.agentMode)
		return false, err
	case "/attach":
		if arg == "" {
			return false, errors.New("usage: /attach <path>")
		}
		a, err := conversation.LoadAttachment(r.fs, arg)
		if err != nil {
			log.Warn().Err(err).Str("path", arg).Msg("skipping attachment")
			return false, err
		}
		r.attachments = append(r.attachments, a)
		return false, nil
	case "/models":
		_, err := orch.RefreshModels(ctx)
		return false, err
	case "/settings":
		return false, orch.SendSettings(ctx)
	case "/provider":
		provider := types.ApiType(arg)
		return false, orch.UpdateSettings(ctx, settings.Update{Provider: &provider})
	default:
		return false, errors.Errorf("unknown command %s, try /help", name)
	}
}
