package events

import (
	"encoding/json"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// EventType names the messages exchanged with the chat UI.
type EventType string

const (
	EventTypeAddMessage        EventType = "add-message"
	EventTypeUpdateSessionList EventType = "update-session-list"
	EventTypeInitHistory       EventType = "init-history"
	EventTypeUpdateModels      EventType = "update-models"
	EventTypeInitSettings      EventType = "init-settings"
	EventTypeUpdateModelStatus EventType = "update-model-status"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

// EventMetadata correlates events with the user turn that caused them.
type EventMetadata struct {
	TurnID string `json:"turn_id,omitempty" yaml:"turn_id,omitempty"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	if em.TurnID != "" {
		e.Str("turn_id", em.TurnID)
	}
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// set when the event was decoded by NewEventFromJSON
	payload []byte
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	ev.Object("meta", e.Metadata_)
}

type EventAddMessage struct {
	EventImpl
	Role    conversation.Role    `json:"role"`
	Content conversation.Content `json:"content"`
	// SessionID is the session the message belongs to. It can differ from
	// the current session when a reply arrives after the user switched.
	SessionID string `json:"sessionId,omitempty"`
}

func NewAddMessageEvent(metadata EventMetadata, sessionID string, role conversation.Role, content conversation.Content) *EventAddMessage {
	return &EventAddMessage{
		EventImpl: EventImpl{Type_: EventTypeAddMessage, Metadata_: metadata},
		Role:      role,
		Content:   content,
		SessionID: sessionID,
	}
}

var _ Event = &EventAddMessage{}

type EventUpdateSessionList struct {
	EventImpl
	Sessions  []conversation.Session `json:"sessions"`
	CurrentID string                 `json:"currentId"`
}

func NewUpdateSessionListEvent(metadata EventMetadata, sessions []conversation.Session, currentID string) *EventUpdateSessionList {
	if sessions == nil {
		sessions = []conversation.Session{}
	}
	return &EventUpdateSessionList{
		EventImpl: EventImpl{Type_: EventTypeUpdateSessionList, Metadata_: metadata},
		Sessions:  sessions,
		CurrentID: currentID,
	}
}

var _ Event = &EventUpdateSessionList{}

type EventInitHistory struct {
	EventImpl
	History []conversation.Message `json:"history"`
}

func NewInitHistoryEvent(metadata EventMetadata, history []conversation.Message) *EventInitHistory {
	if history == nil {
		history = []conversation.Message{}
	}
	return &EventInitHistory{
		EventImpl: EventImpl{Type_: EventTypeInitHistory, Metadata_: metadata},
		History:   history,
	}
}

var _ Event = &EventInitHistory{}

type EventUpdateModels struct {
	EventImpl
	Models []string `json:"models"`
}

func NewUpdateModelsEvent(metadata EventMetadata, models []string) *EventUpdateModels {
	if models == nil {
		models = []string{}
	}
	return &EventUpdateModels{
		EventImpl: EventImpl{Type_: EventTypeUpdateModels, Metadata_: metadata},
		Models:    models,
	}
}

var _ Event = &EventUpdateModels{}

type EventInitSettings struct {
	EventImpl
	Provider string   `json:"provider" yaml:"provider"`
	Models   []string `json:"models" yaml:"models"`
	BaseURL  string   `json:"baseUrl" yaml:"baseUrl"`
	APIKey   string   `json:"apiKey" yaml:"apiKey"`
}

func NewInitSettingsEvent(metadata EventMetadata, provider string, models []string, baseURL string, apiKey string) *EventInitSettings {
	if models == nil {
		models = []string{}
	}
	return &EventInitSettings{
		EventImpl: EventImpl{Type_: EventTypeInitSettings, Metadata_: metadata},
		Provider:  provider,
		Models:    models,
		BaseURL:   baseURL,
		APIKey:    apiKey,
	}
}

var _ Event = &EventInitSettings{}

type EventUpdateModelStatus struct {
	EventImpl
	Model string `json:"model"`
}

func NewUpdateModelStatusEvent(metadata EventMetadata, model string) *EventUpdateModelStatus {
	return &EventUpdateModelStatus{
		EventImpl: EventImpl{Type_: EventTypeUpdateModelStatus, Metadata_: metadata},
		Model:     model,
	}
}

var _ Event = &EventUpdateModelStatus{}

// NewEventFromJSON decodes an event published by a sink back into its typed
// form.
func NewEventFromJSON(b []byte) (Event, error) {
	var hdr EventImpl
	if err := json.Unmarshal(b, &hdr); err != nil {
		return nil, errors.Wrap(err, "could not decode event header")
	}

	var ret Event
	switch hdr.Type_ {
	case EventTypeAddMessage:
		ret = &EventAddMessage{}
	case EventTypeUpdateSessionList:
		ret = &EventUpdateSessionList{}
	case EventTypeInitHistory:
		ret = &EventInitHistory{}
	case EventTypeUpdateModels:
		ret = &EventUpdateModels{}
	case EventTypeInitSettings:
		ret = &EventInitSettings{}
	case EventTypeUpdateModelStatus:
		ret = &EventUpdateModelStatus{}
	default:
		return nil, errors.Errorf("unknown event type %q", hdr.Type_)
	}

	if err := json.Unmarshal(b, ret); err != nil {
		return nil, errors.Wrapf(err, "could not decode %s event", hdr.Type_)
	}
	if setter, ok := ret.(interface{ setPayload([]byte) }); ok {
		setter.setPayload(b)
	}
	return ret, nil
}

func (e *EventImpl) setPayload(b []byte) {
	e.payload = b
}
