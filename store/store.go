package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"serenify/models"
)

// The full chat list lives under a single record, mirroring the one
// localStorage entry a single-device client would keep. Last writer wins;
// concurrent writers are not coordinated.
const chatsKey = "serenify-chats"

// ErrChatNotFound is returned when a chat id does not resolve to a stored chat.
var ErrChatNotFound = errors.New("chat not found")

const defaultTitle = "New Conversation"

// titleRuneLimit bounds the generated chat title before the ellipsis.
const titleRuneLimit = 30

// seedGreeting is the assistant message every new chat starts with.
const seedGreeting = "Hi there! I'm your AI mental health assistant. How are you feeling today? " +
	"I'm here to listen and support you. Feel free to share whatever is on your mind, " +
	"whether you're looking for coping strategies, need someone to talk to, or just want " +
	"to reflect on your emotions."

// ConversationStore persists chats in a local BadgerDB instance.
type ConversationStore struct {
	db  *badger.DB
	log *slog.Logger
}

// NewConversationStore creates a store backed by an open Badger database.
func NewConversationStore(db *badger.DB, log *slog.Logger) *ConversationStore {
	return &ConversationStore{db: db, log: log}
}

// ListChats returns all chats sorted by most recent activity. Read failures
// are logged and reported as an empty list so the UI can still render.
func (s *ConversationStore) ListChats() []models.Chat {
	chats, err := s.loadChats()
	if err != nil {
		s.log.Error("Failed to read chats, treating storage as empty", "error", err)
		return []models.Chat{}
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].Timestamp.After(chats[j].Timestamp)
	})
	return chats
}

// GetChat returns the chat with the given id, or found=false when it does
// not exist. Not-found is a normal outcome, not an error.
func (s *ConversationStore) GetChat(id uuid.UUID) (*models.Chat, bool) {
	chats, err := s.loadChats()
	if err != nil {
		s.log.Error("Failed to read chats", "error", err)
		return nil, false
	}

	chat, found := lo.Find(chats, func(c models.Chat) bool { return c.ID == id })
	if !found {
		return nil, false
	}
	return &chat, true
}

// CreateChat allocates a new chat seeded with the assistant greeting and
// persists it.
func (s *ConversationStore) CreateChat() (*models.Chat, error) {
	greeting := models.NewChatMessage(models.SenderAssistant, seedGreeting)
	chat := models.Chat{
		ID:          uuid.New(),
		Title:       defaultTitle,
		LastMessage: greeting.Content,
		Timestamp:   greeting.Timestamp,
		Messages:    []models.ChatMessage{greeting},
	}

	chats, err := s.loadChats()
	if err != nil {
		s.log.Error("Failed to read chats, starting a fresh list", "error", err)
		chats = nil
	}
	if err := s.saveChats(append(chats, chat)); err != nil {
		return nil, fmt.Errorf("failed to persist new chat: %w", err)
	}
	return &chat, nil
}

// AppendMessage appends a message to an existing chat, refreshes the
// preview fields, and regenerates the title when the first user message
// arrives. Returns ErrChatNotFound without writing if the id is unknown.
func (s *ConversationStore) AppendMessage(chatID uuid.UUID, msg models.ChatMessage) (*models.Chat, error) {
	chats, err := s.loadChats()
	if err != nil {
		s.log.Error("Failed to read chats", "error", err)
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}

	_, idx, found := lo.FindIndexOf(chats, func(c models.Chat) bool { return c.ID == chatID })
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, chatID)
	}

	chat := &chats[idx]
	chat.Messages = append(chat.Messages, msg)
	chat.LastMessage = msg.Content
	chat.Timestamp = msg.Timestamp

	if msg.Sender == models.SenderUser {
		userTurns := lo.CountBy(chat.Messages, func(m models.ChatMessage) bool {
			return m.Sender == models.SenderUser
		})
		if userTurns == 1 {
			chat.Title = generateTitle(chat.Messages)
		}
	}

	if err := s.saveChats(chats); err != nil {
		return nil, fmt.Errorf("failed to persist chat %s: %w", chatID, err)
	}
	return chat, nil
}

// DeleteChat removes a chat if present. Deleting an unknown id is a no-op.
func (s *ConversationStore) DeleteChat(id uuid.UUID) error {
	chats, err := s.loadChats()
	if err != nil {
		s.log.Error("Failed to read chats", "error", err)
		return nil
	}

	remaining := lo.Filter(chats, func(c models.Chat, _ int) bool { return c.ID != id })
	if len(remaining) == len(chats) {
		return nil
	}
	if err := s.saveChats(remaining); err != nil {
		return fmt.Errorf("failed to persist chat deletion: %w", err)
	}
	return nil
}

// generateTitle derives a chat title from the first user message,
// truncated to titleRuneLimit runes with an ellipsis when longer.
func generateTitle(messages []models.ChatMessage) string {
	first, found := lo.Find(messages, func(m models.ChatMessage) bool {
		return m.Sender == models.SenderUser
	})
	if !found {
		return defaultTitle
	}

	runes := []rune(first.Content)
	if len(runes) <= titleRuneLimit {
		return first.Content
	}
	return string(runes[:titleRuneLimit]) + "..."
}

func (s *ConversationStore) loadChats() ([]models.Chat, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chatsKey))
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

	var chats []models.Chat
	if err := json.Unmarshal(raw, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *ConversationStore) saveChats(chats []models.Chat) error {
	raw, err := json.Marshal(chats)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(chatsKey), raw)
	})
}
