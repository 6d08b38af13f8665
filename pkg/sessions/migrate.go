package sessions

import (
	"context"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/kv"
	"github.com/rs/zerolog/log"
)

// MigrateLegacyHistory moves a pre-session single chat history into its own
// session. It returns the new session id, or "" when there was nothing to
// migrate.
func (s *Store) MigrateLegacyHistory(ctx context.Context) (string, error) {
	var id string
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		legacy, err := decodeMessages(tx, legacyHistoryKey)
		if err != nil {
			return err
		}
		if len(legacy) == 0 {
			return nil
		}

		meta, err := readMeta(tx)
		if err != nil {
			return err
		}
		id = s.newID()
		session := conversation.Session{
			ID:        id,
			Title:     conversation.LegacyTitle,
			Timestamp: s.touchTime(meta),
			Preview:   conversation.PreviewOf(legacy[len(legacy)-1].Content.String()),
		}
		if err := writeMeta(tx, append([]conversation.Session{session}, meta...)); err != nil {
			return err
		}
		if err := writeMessages(tx, id, legacy); err != nil {
			return err
		}
		return tx.Delete(legacyHistoryKey)
	})
	if err != nil {
		return "", err
	}
	if id != "" {
		log.Info().Str("session", id).Msg("migrated legacy chat history")
	}
	return id, nil
}
