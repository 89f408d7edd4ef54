// Package settings defines per-chat dice bot settings and their storage contract.
package settings

import (
	"context"
	"errors"
	"sync"
	"time"
)

//go:generate mockgen -destination=mock/mock_store.go -package=settingsmock github.com/cory-johannsen/dicebot/internal/settings Store

// ErrInvalidChatID is returned when a chat ID is empty.
var ErrInvalidChatID = errors.New("settings: chat id must not be empty")

// ErrInvalidSurface is returned when a default surface override is negative.
var ErrInvalidSurface = errors.New("settings: default surface must be >= 0")

// ChatSettings holds the persisted state of one chat.
type ChatSettings struct {
	ChatID string
	// DefaultSurface overrides the global default surface; 0 means unset.
	DefaultSurface int
	// Active is false when the bot has been switched off for the chat.
	Active    bool
	UpdatedAt time.Time
}

// Defaults returns the settings of a chat that has never been configured.
func Defaults(chatID string) ChatSettings {
	return ChatSettings{ChatID: chatID, Active: true}
}

// EffectiveSurface returns the chat override when set, else global.
func (s ChatSettings) EffectiveSurface(global int) int {
	if s.DefaultSurface > 0 {
		return s.DefaultSurface
	}
	return global
}

// Store persists ChatSettings.
//
// Implementations MUST be safe for concurrent use.
type Store interface {
	// Get returns the chat's settings, or Defaults(chatID) when none are stored.
	Get(ctx context.Context, chatID string) (ChatSettings, error)
	// SetDefaultSurface stores the chat's surface override; 0 clears it.
	SetDefaultSurface(ctx context.Context, chatID string, surface int) error
	// SetActive switches the bot on or off for the chat.
	SetActive(ctx context.Context, chatID string, active bool) error
}

// Validate checks the arguments shared by every Store write.
func Validate(chatID string, surface int) error {
	if chatID == "" {
		return ErrInvalidChatID
	}
	if surface < 0 {
		return ErrInvalidSurface
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string]ChatSettings
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string]ChatSettings), now: time.Now}
}

var _ Store = (*MemoryStore)(nil)

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, chatID string) (ChatSettings, error) {
	if chatID == "" {
		return ChatSettings{}, ErrInvalidChatID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.chats[chatID]; ok {
		return s, nil
	}
	return Defaults(chatID), nil
}

// SetDefaultSurface implements Store.
func (m *MemoryStore) SetDefaultSurface(_ context.Context, chatID string, surface int) error {
	if err := Validate(chatID, surface); err != nil {
		return err
	}
	m.update(chatID, func(s *ChatSettings) { s.DefaultSurface = surface })
	return nil
}

// SetActive implements Store.
func (m *MemoryStore) SetActive(_ context.Context, chatID string, active bool) error {
	if err := Validate(chatID, 0); err != nil {
		return err
	}
	m.update(chatID, func(s *ChatSettings) { s.Active = active })
	return nil
}

func (m *MemoryStore) update(chatID string, fn func(*ChatSettings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.chats[chatID]
	if !ok {
		s = Defaults(chatID)
	}
	fn(&s)
	s.UpdatedAt = m.now()
	m.chats[chatID] = s
}
