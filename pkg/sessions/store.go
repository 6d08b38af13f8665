// Package sessions persists chat sessions on top of a kv.Store: one
// metadata listing plus one message list per session.
package sessions

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/kv"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	metaKey          = "sessions_meta"
	sessionKeyPrefix = "session_"
	legacyHistoryKey = "chatHistory"
)

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithMaxMessages overrides the per-session sliding window size.
func WithMaxMessages(n int) Option {
	return func(s *Store) {
		s.maxMessages = n
	}
}

type Store struct {
	kv          kv.Store
	now         func() time.Time
	newID       func() string
	maxMessages int
}

func NewStore(backend kv.Store, options ...Option) *Store {
	s := &Store{
		kv:          backend,
		now:         time.Now,
		newID:       uuid.NewString,
		maxMessages: conversation.MaxMessages,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// ListSessions returns all sessions, most recently touched first.
func (s *Store) ListSessions(ctx context.Context) ([]conversation.Session, error) {
	var ret []conversation.Session
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		var err error
		ret, err = readMeta(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortSessions(ret)
	return ret, nil
}

func (s *Store) CreateSession(ctx context.Context, title string) (string, error) {
	if title == "" {
		title = conversation.DefaultTitle
	}
	id := s.newID()
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		meta, err := readMeta(tx)
		if err != nil {
			return err
		}
		session := conversation.Session{
			ID:        id,
			Title:     title,
			Timestamp: s.touchTime(meta),
			Preview:   conversation.EmptyPreview,
		}
		meta = append([]conversation.Session{session}, meta...)
		if err := writeMeta(tx, meta); err != nil {
			return err
		}
		return writeMessages(tx, id, []conversation.Message{})
	})
	if err != nil {
		return "", err
	}
	log.Debug().Str("session", id).Str("title", title).Msg("created session")
	return id, nil
}

// GetMessages returns the stored messages of id, or an empty list when the
// session does not exist.
func (s *Store) GetMessages(ctx context.Context, id string) ([]conversation.Message, error) {
	var ret []conversation.Message
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		var err error
		ret, err = readMessages(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (conversation.Session, bool, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return conversation.Session{}, false, err
	}
	for _, session := range sessions {
		if session.ID == id {
			return session, true, nil
		}
	}
	return conversation.Session{}, false, nil
}

// AppendMessage adds a message to the session and updates its metadata in the
// same transaction. The list is capped, dropping the oldest messages.
func (s *Store) AppendMessage(ctx context.Context, id string, msg conversation.Message) error {
	return s.kv.Update(ctx, func(tx kv.Tx) error {
		messages, err := readMessages(tx, id)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
		if s.maxMessages > 0 && len(messages) > s.maxMessages {
			messages = messages[len(messages)-s.maxMessages:]
		}
		if err := writeMessages(tx, id, messages); err != nil {
			return err
		}

		meta, err := readMeta(tx)
		if err != nil {
			return err
		}
		idx := -1
		for i := range meta {
			if meta[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			log.Warn().Str("session", id).Msg("appending to session without metadata")
			return nil
		}

		session := meta[idx]
		text := msg.Content.String()
		session.Preview = conversation.PreviewOf(text)
		if msg.Role == conversation.RoleUser && session.Title == conversation.DefaultTitle {
			session.Title = conversation.TitleOf(text)
		}
		rest := append(meta[:idx:idx], meta[idx+1:]...)
		session.Timestamp = s.touchTime(rest)
		meta = append([]conversation.Session{session}, rest...)
		return writeMeta(tx, meta)
	})
}

// DeleteSession removes the session and its messages. Deleting an unknown id is
// a no-op.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.kv.Update(ctx, func(tx kv.Tx) error {
		meta, err := readMeta(tx)
		if err != nil {
			return err
		}
		kept := make([]conversation.Session, 0, len(meta))
		for _, session := range meta {
			if session.ID != id {
				kept = append(kept, session)
			}
		}
		if len(kept) != len(meta) {
			if err := writeMeta(tx, kept); err != nil {
				return err
			}
		}
		return tx.Delete(sessionKey(id))
	})
}

func (s *Store) ClearAll(ctx context.Context) error {
	return s.kv.Update(ctx, func(tx kv.Tx) error {
		meta, err := readMeta(tx)
		if err != nil {
			return err
		}
		for _, session := range meta {
			if err := tx.Delete(sessionKey(session.ID)); err != nil {
				return err
			}
		}
		return writeMeta(tx, []conversation.Session{})
	})
}

// touchTime returns now, nudged forward so that it is never older than any
// existing session. This keeps the touched session first after sorting even
// when the clock is coarse.
func (s *Store) touchTime(others []conversation.Session) time.Time {
	now := s.now()
	for _, o := range others {
		if o.Timestamp.After(now) {
			now = o.Timestamp
		}
	}
	return now
}

func sortSessions(sessions []conversation.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
}

func readMeta(tx kv.Tx) ([]conversation.Session, error) {
	ret := []conversation.Session{}
	b, ok, err := tx.Get(metaKey)
	if err != nil {
		return nil, err
	}
	if !ok || len(b) == 0 {
		return ret, nil
	}
	if err := json.Unmarshal(b, &ret); err != nil {
		log.Warn().Err(err).Msg("ignoring undecodable session metadata")
		return []conversation.Session{}, nil
	}
	return ret, nil
}

func writeMeta(tx kv.Tx, meta []conversation.Session) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "could not encode session metadata")
	}
	return tx.Set(metaKey, b)
}

func readMessages(tx kv.Tx, id string) ([]conversation.Message, error) {
	return decodeMessages(tx, sessionKey(id))
}

func decodeMessages(tx kv.Tx, key string) ([]conversation.Message, error) {
	ret := []conversation.Message{}
	b, ok, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok || len(b) == 0 {
		return ret, nil
	}
	if err := json.Unmarshal(b, &ret); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ignoring undecodable message list")
		return []conversation.Message{}, nil
	}
	if ret == nil {
		ret = []conversation.Message{}
	}
	return ret, nil
}

func writeMessages(tx kv.Tx, id string, messages []conversation.Message) error {
	b, err := json.Marshal(messages)
	if err != nil {
		return errors.Wrapf(err, "could not encode messages of session %s", id)
	}
	return tx.Set(sessionKey(id), b)
}
