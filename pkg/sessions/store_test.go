package sessions

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/kv"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	backend := kv.NewMemoryStore()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	n := 0
	return NewStore(backend,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("s%d", n)
		}),
	), backend
}

func TestListSessionsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	sessions, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NotNil(t, sessions)
}

func TestCreateSessionDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)
	assert.Equal(t, "New Chat", sessions[0].Title)
	assert.Equal(t, "Empty conversation", sessions[0].Preview)

	messages, err := s.GetMessages(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestCreateSessionUsesUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemoryStore())
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := s.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGetMessagesUnknownSession(t *testing.T) {
	s, _ := newTestStore(t)
	messages, err := s.GetMessages(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestAppendRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)

	appended := []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
		conversation.NewChatMessage(conversation.RoleAssistant, "hello\nthere"),
		{Role: conversation.RoleUser, Content: conversation.NewBlockContent(
			conversation.NewTextBlock("look"),
			conversation.NewImageBlock("data:image/png;base64,AAA="),
		)},
	}
	for _, m := range appended {
		require.NoError(t, s.AppendMessage(ctx, id, m))
	}

	got, err := s.GetMessages(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(appended, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendCapsAtHundred(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)

	var all []conversation.Message
	for i := 0; i < 130; i++ {
		m := conversation.NewChatMessage(conversation.RoleAssistant, fmt.Sprintf("m%d", i))
		all = append(all, m)
		require.NoError(t, s.AppendMessage(ctx, id, m))

		got, err := s.GetMessages(ctx, id)
		require.NoError(t, err)
		want := all
		if len(want) > 100 {
			want = want[len(want)-100:]
		}
		require.Len(t, got, len(want))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("window mismatch after %d appends (-want +got):\n%s", i+1, diff)
		}
	}
}

func TestTitleSetOnceFromFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(ctx, id, conversation.NewChatMessage(conversation.RoleAssistant, "greeting")))
	session, ok, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "New Chat", session.Title)
	assert.Equal(t, "greeting", session.Preview)

	first := strings.Repeat("x", 31)
	require.NoError(t, s.AppendMessage(ctx, id, conversation.NewChatMessage(conversation.RoleUser, first)))
	session, _, err = s.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 30)+"...", session.Title)

	require.NoError(t, s.AppendMessage(ctx, id, conversation.NewChatMessage(conversation.RoleUser, "second question")))
	session, _, err = s.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 30)+"...", session.Title)
	assert.Equal(t, "second question", session.Preview)
}

func TestTitleExactlyThirtyHasNoEllipsis(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)

	text := strings.Repeat("y", 30)
	require.NoError(t, s.AppendMessage(ctx, id, conversation.NewChatMessage(conversation.RoleUser, text)))
	session, _, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, text, session.Title)
}

func TestPreviewTruncatesAtFifty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id, err := s.CreateSession(ctx, "Named")
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(ctx, id, conversation.NewChatMessage(conversation.RoleUser, strings.Repeat("p", 60))))
	session, _, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("p", 50)+"...", session.Preview)
	assert.Equal(t, "Named", session.Title)
}

func TestAppendMovesSessionToHead(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	b, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	c, err := s.CreateSession(ctx, "")
	require.NoError(t, err)

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c, b, a}, ids(sessions))

	for _, id := range []string{a, c, b, a} {
		require.NoError(t, s.AppendMessage(ctx, id, conversation.NewChatMessage(conversation.RoleUser, "x")))
		sessions, err = s.ListSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, sessions[0].ID)
		for i := 1; i < len(sessions); i++ {
			assert.False(t, sessions[i].Timestamp.After(sessions[i-1].Timestamp))
		}
	}
}

func TestAppendWithStoppedClockStillMovesToHead(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(kv.NewMemoryStore(), WithClock(func() time.Time { return fixed }))
	a, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(ctx, a, conversation.NewChatMessage(conversation.RoleUser, "x")))
	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, sessions[0].ID)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	b, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage(ctx, a, conversation.NewChatMessage(conversation.RoleUser, "x")))

	require.NoError(t, s.DeleteSession(ctx, a))
	require.NoError(t, s.DeleteSession(ctx, a))
	require.NoError(t, s.DeleteSession(ctx, "never-existed"))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, ids(sessions))
	messages, err := s.GetMessages(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)
	a, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage(ctx, a, conversation.NewChatMessage(conversation.RoleUser, "x")))

	require.NoError(t, s.ClearAll(ctx))
	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, backend.View(ctx, func(tx kv.Tx) error {
		_, ok, err := tx.Get(sessionKey(a))
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestAppendToUnknownSessionStoresMessagesOnly(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.AppendMessage(ctx, "ghost", conversation.NewChatMessage(conversation.RoleUser, "boo")))

	messages, err := s.GetMessages(ctx, "ghost")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestUndecodablePayloadsAreTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)
	require.NoError(t, backend.Update(ctx, func(tx kv.Tx) error {
		if err := tx.Set(metaKey, []byte(`{"not":"a list"}`)); err != nil {
			return err
		}
		return tx.Set(sessionKey("x"), []byte(`garbage`))
	}))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	messages, err := s.GetMessages(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStorageFailurePropagates(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryStore()
	s := NewStore(backend)
	require.NoError(t, backend.Close())

	_, err := s.ListSessions(ctx)
	assert.True(t, kv.IsUnavailable(err))
	_, err = s.CreateSession(ctx, "")
	assert.True(t, kv.IsUnavailable(err))
	err = s.AppendMessage(ctx, "x", conversation.NewChatMessage(conversation.RoleUser, "y"))
	assert.True(t, kv.IsUnavailable(err))
}

func TestMigrateLegacyHistory(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)

	id, err := s.MigrateLegacyHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	last := strings.Repeat("z", 55)
	require.NoError(t, backend.Update(ctx, func(tx kv.Tx) error {
		return tx.Set(legacyHistoryKey, []byte(`[{"role":"user","content":"old"},{"role":"assistant","content":"`+last+`"}]`))
	}))

	id, err = s.MigrateLegacyHistory(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	session, ok, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Legacy Session", session.Title)
	assert.Equal(t, strings.Repeat("z", 50)+"...", session.Preview)

	messages, err := s.GetMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "old", messages[0].Content.String())

	again, err := s.MigrateLegacyHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	id, err := s.CreateSession(ctx, "")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage(ctx, id, conversation.NewChatMessage(conversation.RoleUser, "hi")))

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, id, &buf, ExportFormatYAML))
	var doc Export
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "hi", doc.Session.Title)
	require.Len(t, doc.Messages, 1)
	assert.Equal(t, conversation.RoleUser, doc.Messages[0].Role)

	buf.Reset()
	require.NoError(t, s.Export(ctx, id, &buf, ExportFormatJSON))
	assert.Contains(t, buf.String(), `"content": "hi"`)

	assert.Error(t, s.Export(ctx, "missing", &buf, ExportFormatJSON))
	assert.Error(t, s.Export(ctx, id, &buf, "xml"))
}

func ids(sessions []conversation.Session) []string {
	ret := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ret = append(ret, s.ID)
	}
	return ret
}
