package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"serenify/models"
)

// Mood logs live under their own record, separate from chats.
const moodsKey = "serenify-moods"

// ListMoodLogs returns all mood entries sorted by date descending. Read
// failures are logged and reported as an empty list.
func (s *ConversationStore) ListMoodLogs() []models.MoodLog {
	logs, err := s.loadMoodLogs()
	if err != nil {
		s.log.Error("Failed to read mood logs, treating storage as empty", "error", err)
		return []models.MoodLog{}
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date.After(logs[j].Date)
	})
	return logs
}

// AddMoodLog persists a new mood entry.
func (s *ConversationStore) AddMoodLog(entry models.MoodLog) error {
	logs, err := s.loadMoodLogs()
	if err != nil {
		s.log.Error("Failed to read mood logs, starting a fresh list", "error", err)
		logs = nil
	}
	if err := s.saveMoodLogs(append(logs, entry)); err != nil {
		return fmt.Errorf("failed to persist mood log: %w", err)
	}
	return nil
}

// DeleteMoodLog removes a mood entry if present. Unknown ids are a no-op.
func (s *ConversationStore) DeleteMoodLog(id uuid.UUID) error {
	logs, err := s.loadMoodLogs()
	if err != nil {
		s.log.Error("Failed to read mood logs", "error", err)
		return nil
	}

	remaining := lo.Filter(logs, func(m models.MoodLog, _ int) bool { return m.ID != id })
	if len(remaining) == len(logs) {
		return nil
	}
	if err := s.saveMoodLogs(remaining); err != nil {
		return fmt.Errorf("failed to persist mood log deletion: %w", err)
	}
	return nil
}

func (s *ConversationStore) loadMoodLogs() ([]models.MoodLog, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(moodsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var logs []models.MoodLog
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *ConversationStore) saveMoodLogs(logs []models.MoodLog) error {
	raw, err := json.Marshal(logs)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(moodsKey), raw)
	})
}
