package orchestrator

import (
	"context"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/directives"
	"github.com/go-go-golems/grillo/pkg/events"
	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/go-go-golems/grillo/pkg/sessions"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	Greeting           = "Chat reset. How can I help you?"
	NoResponseText     = "(No response from provider)"
	UnknownModel       = "Unknown Model"
	errorMessagePrefix = "Error: "
)

var ErrSessionNotFound = errors.New("session not found")

// SessionContext is the conversation a UI surface is showing. The UI owns it
// and passes it to every call; the orchestrator only updates CurrentID.
type SessionContext struct {
	CurrentID string
}

// UserTurn is one message typed by the user.
type UserTurn struct {
	Text        string
	AgentMode   bool
	Attachments []conversation.Attachment
}

// ClientFactory returns the completion client for the current configuration.
// It is called once per operation so configuration changes apply immediately.
type ClientFactory func(ctx context.Context) (chat.Client, error)

// SettingsSource reads and updates the provider configuration.
type SettingsSource interface {
	Current() *settings.Settings
	Apply(u settings.Update) (*settings.Settings, error)
}

type Orchestrator struct {
	store      *sessions.Store
	clients    ClientFactory
	sink       events.EventSink
	directives *directives.Processor
	prompts    *Prompts
	settings   SettingsSource
}

type Option func(*Orchestrator)

func WithSink(sink events.EventSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

func WithDirectiveProcessor(p *directives.Processor) Option {
	return func(o *Orchestrator) {
		o.directives = p
	}
}

func WithPrompts(p *Prompts) Option {
	return func(o *Orchestrator) {
		o.prompts = p
	}
}

func WithSettings(s SettingsSource) Option {
	return func(o *Orchestrator) {
		o.settings = s
	}
}

func New(store *sessions.Store, clients ClientFactory, options ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		clients:    clients,
		sink:       events.NullSink{},
		directives: directives.NewProcessor(afero.NewOsFs()),
		prompts:    DefaultPrompts(),
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *Orchestrator) publish(ctx context.Context, e events.Event) {
	if err := o.sink.PublishEvent(e); err != nil {
		helpers.LoggerWithTurnID(ctx).Warn().Err(err).Str("type", string(e.Type())).Msg("could not publish event")
	}
}

func metadataFrom(ctx context.Context) events.EventMetadata {
	return events.EventMetadata{TurnID: helpers.TurnIDFromContext(ctx)}
}

func (o *Orchestrator) sendSessionList(ctx context.Context, sc *SessionContext) error {
	list, err := o.store.ListSessions(ctx)
	if err != nil {
		return err
	}
	o.publish(ctx, events.NewUpdateSessionListEvent(metadataFrom(ctx), list, sc.CurrentID))
	return nil
}

// Init runs the legacy migration and selects the most recently used session
// when none is current yet.
func (o *Orchestrator) Init(ctx context.Context, sc *SessionContext) error {
	migrated, err := o.store.MigrateLegacyHistory(ctx)
	if err != nil {
		return err
	}
	if migrated != "" {
		log.Info().Str("session", migrated).Msg("migrated legacy chat history")
	}

	if sc.CurrentID == "" {
		list, err := o.store.ListSessions(ctx)
		if err != nil {
			return err
		}
		if len(list) > 0 {
			sc.CurrentID = list[0].ID
		}
	}

	if err := o.sendSessionList(ctx, sc); err != nil {
		return err
	}
	history, err := o.store.GetMessages(ctx, sc.CurrentID)
	if err != nil {
		return err
	}
	o.publish(ctx, events.NewInitHistoryEvent(metadataFrom(ctx), history))
	return nil
}

// NewSession starts a fresh session with a greeting. A completion still in
// flight for the previous session is not cancelled.
func (o *Orchestrator) NewSession(ctx context.Context, sc *SessionContext) error {
	id, err := o.store.CreateSession(ctx, "")
	if err != nil {
		return err
	}
	sc.CurrentID = id

	o.publish(ctx, events.NewInitHistoryEvent(metadataFrom(ctx), nil))
	greeting := conversation.NewChatMessage(conversation.RoleAssistant, Greeting)
	if err := o.store.AppendMessage(ctx, id, greeting); err != nil {
		return err
	}
	o.publish(ctx, events.NewAddMessageEvent(metadataFrom(ctx), id, greeting.Role, greeting.Content))
	return o.sendSessionList(ctx, sc)
}

func (o *Orchestrator) LoadSession(ctx context.Context, sc *SessionContext, id string) error {
	_, ok, err := o.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "could not load %s", id)
	}
	history, err := o.store.GetMessages(ctx, id)
	if err != nil {
		return err
	}
	sc.CurrentID = id
	o.publish(ctx, events.NewInitHistoryEvent(metadataFrom(ctx), history))
	return o.sendSessionList(ctx, sc)
}

// DeleteSession removes id. Deleting the current session switches to the most
// recent remaining one, or to none.
func (o *Orchestrator) DeleteSession(ctx context.Context, sc *SessionContext, id string) error {
	if err := o.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	if sc.CurrentID != id {
		return o.sendSessionList(ctx, sc)
	}

	list, err := o.store.ListSessions(ctx)
	if err != nil {
		return err
	}
	sc.CurrentID = ""
	if len(list) > 0 {
		sc.CurrentID = list[0].ID
	}
	history, err := o.store.GetMessages(ctx, sc.CurrentID)
	if err != nil {
		return err
	}
	o.publish(ctx, events.NewInitHistoryEvent(metadataFrom(ctx), history))
	o.publish(ctx, events.NewUpdateSessionListEvent(metadataFrom(ctx), list, sc.CurrentID))
	return nil
}

// HandleUserTurn runs one request/response exchange. Only storage failures
// are returned; completion failures become a displayed error message and
// leave the stored history untouched.
func (o *Orchestrator) HandleUserTurn(ctx context.Context, sc *SessionContext, turn UserTurn) error {
	if turn.Text == "" && len(turn.Attachments) == 0 {
		return nil
	}

	ctx = helpers.ContextWithTurnID(ctx, helpers.NewTurnID())
	logger := helpers.LoggerWithTurnID(ctx)
	meta := metadataFrom(ctx)

	if sc.CurrentID != "" {
		_, ok, err := o.store.GetSession(ctx, sc.CurrentID)
		if err != nil {
			return err
		}
		if !ok {
			logger.Warn().Str("session", sc.CurrentID).Msg("current session no longer exists, starting a new one")
			sc.CurrentID = ""
		}
	}
	if sc.CurrentID == "" {
		id, err := o.store.CreateSession(ctx, "")
		if err != nil {
			return err
		}
		sc.CurrentID = id
	}
	// replies go to the session the turn was issued in, even if the user
	// switches sessions while waiting
	sessionID := sc.CurrentID

	history, err := o.store.GetMessages(ctx, sessionID)
	if err != nil {
		return err
	}

	display := DisplayText(turn.Text, turn.Attachments)
	o.publish(ctx, events.NewAddMessageEvent(meta, sessionID, conversation.RoleUser, conversation.NewTextContent(display)))
	if err := o.store.AppendMessage(ctx, sessionID, conversation.NewChatMessage(conversation.RoleUser, display)); err != nil {
		return err
	}
	if err := o.sendSessionList(ctx, sc); err != nil {
		return err
	}

	system, err := o.prompts.System(turn.AgentMode)
	if err != nil {
		o.publishError(ctx, sessionID, err)
		return nil
	}
	messages := BuildMessages(system, history, PromptContent(turn.Text, turn.Attachments))

	logger.Debug().
		Str("session", sessionID).
		Int("messages", len(messages)).
		Int("estimated_tokens", EstimateTokens(messages)).
		Bool("agent_mode", turn.AgentMode).
		Msg("sending completion request")

	client, err := o.clients(ctx)
	if err != nil {
		o.publishError(ctx, sessionID, err)
		return nil
	}

	start := time.Now()
	reply, err := client.Complete(ctx, messages)
	if err != nil {
		kind, _ := chat.KindOf(err)
		logger.Warn().Err(err).Str("session", sessionID).Str("kind", string(kind)).Msg("completion failed")
		o.publishError(ctx, sessionID, err)
		return nil
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Int("length", len(reply)).Msg("completion received")

	if reply == "" {
		placeholder := conversation.NewChatMessage(conversation.RoleAssistant, NoResponseText)
		o.publish(ctx, events.NewAddMessageEvent(meta, sessionID, placeholder.Role, placeholder.Content))
		return o.persistReply(ctx, sc, sessionID, placeholder)
	}

	answer := conversation.NewChatMessage(conversation.RoleAssistant, reply)
	o.publish(ctx, events.NewAddMessageEvent(meta, sessionID, answer.Role, answer.Content))
	if err := o.persistReply(ctx, sc, sessionID, answer); err != nil {
		return err
	}

	if turn.AgentMode {
		o.applyDirectives(ctx, sessionID, reply)
	}
	return nil
}

// persistReply stores the assistant message unless the issuing session was
// deleted while the request was in flight.
func (o *Orchestrator) persistReply(ctx context.Context, sc *SessionContext, sessionID string, msg conversation.Message) error {
	_, ok, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		helpers.LoggerWithTurnID(ctx).Warn().Str("session", sessionID).Msg("session deleted before the reply arrived, not storing it")
		return nil
	}
	if err := o.store.AppendMessage(ctx, sessionID, msg); err != nil {
		return err
	}
	return o.sendSessionList(ctx, sc)
}

func (o *Orchestrator) applyDirectives(ctx context.Context, sessionID string, reply string) {
	logger := helpers.LoggerWithTurnID(ctx)
	for _, r := range o.directives.Apply(reply) {
		role := conversation.RoleAssistant
		if r.Err != nil {
			role = conversation.RoleError
			logger.Warn().Err(r.Err).Str("path", r.Directive.TargetPath).Msg("directive failed")
		} else {
			logger.Info().Str("path", r.ResolvedPath).Int("bytes", len(r.Directive.Body)).Msg("directive applied")
		}
		o.publish(ctx, events.NewAddMessageEvent(metadataFrom(ctx), sessionID, role, conversation.NewTextContent(r.Message())))
	}
}

func (o *Orchestrator) publishError(ctx context.Context, sessionID string, err error) {
	o.publish(ctx, events.NewAddMessageEvent(
		metadataFrom(ctx), sessionID,
		conversation.RoleError, conversation.NewTextContent(errorMessagePrefix+err.Error()),
	))
}

// Ask runs a single completion outside of any session.
func (o *Orchestrator) Ask(ctx context.Context, prompt string, agentMode bool) (string, error) {
	system, err := o.prompts.System(agentMode)
	if err != nil {
		return "", err
	}
	client, err := o.clients(ctx)
	if err != nil {
		return "", err
	}
	reply, err := client.Complete(ctx, BuildMessages(system, nil, conversation.NewTextContent(prompt)))
	if err != nil {
		return "", err
	}
	if reply == "" {
		return NoResponseText, nil
	}
	return reply, nil
}

// RefreshModels publishes the models the configured provider offers.
func (o *Orchestrator) RefreshModels(ctx context.Context) ([]string, error) {
	client, err := o.clients(ctx)
	if err != nil {
		return nil, err
	}
	models := client.ListModels(ctx)
	o.publish(ctx, events.NewUpdateModelsEvent(metadataFrom(ctx), models))
	return models, nil
}

// SendSettings publishes the active provider configuration and the model in
// use.
func (o *Orchestrator) SendSettings(ctx context.Context) error {
	if o.settings == nil {
		return errors.New("no settings source configured")
	}
	s := o.settings.Current()

	models := []string{}
	client, err := o.clients(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not create client to list models")
	} else {
		models = client.ListModels(ctx)
	}

	meta := metadataFrom(ctx)
	o.publish(ctx, events.NewInitSettingsEvent(meta, string(s.Provider), models, s.ActiveBaseURL(), s.ActiveAPIKey()))

	model := s.ActiveModel()
	if model == "" && len(models) > 0 {
		model = models[0]
	}
	if model == "" {
		model = UnknownModel
	}
	o.publish(ctx, events.NewUpdateModelStatusEvent(meta, model))
	return nil
}

func (o *Orchestrator) UpdateSettings(ctx context.Context, u settings.Update) error {
	if o.settings == nil {
		return errors.New("no settings source configured")
	}
	if _, err := o.settings.Apply(u); err != nil {
		return err
	}
	return o.SendSettings(ctx)
}
