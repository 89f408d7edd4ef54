// Package redis persists chat settings as Redis hashes using go-redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/dicebot/internal/config"
	"github.com/cory-johannsen/dicebot/internal/settings"
)

const (
	fieldDefaultSurface = "default_surface"
	fieldActive         = "active"
	fieldUpdatedAt      = "updated_at"
)

// NewClient creates a go-redis client from cfg and verifies connectivity.
//
// Precondition: cfg.Addr must be non-empty.
// Postcondition: Returns a reachable client or a non-nil error.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// ChatSettingsStore implements settings.Store with one hash per chat.
//
// Key pattern: {prefix}chat:{chat_id}
type ChatSettingsStore struct {
	client goredis.Cmdable
	prefix string
	now    func() time.Time
}

var _ settings.Store = (*ChatSettingsStore)(nil)

// NewChatSettingsStore creates a ChatSettingsStore whose keys start with prefix.
//
// Precondition: client must be non-nil.
func NewChatSettingsStore(client goredis.Cmdable, prefix string) *ChatSettingsStore {
	return &ChatSettingsStore{client: client, prefix: prefix, now: time.Now}
}

func (s *ChatSettingsStore) key(chatID string) string {
	return s.prefix + "chat:" + chatID
}

// Get returns the chat's settings or settings.Defaults(chatID) when the hash is absent.
func (s *ChatSettingsStore) Get(ctx context.Context, chatID string) (settings.ChatSettings, error) {
	if chatID == "" {
		return settings.ChatSettings{}, settings.ErrInvalidChatID
	}
	fields, err := s.client.HGetAll(ctx, s.key(chatID)).Result()
	if err != nil {
		return settings.ChatSettings{}, fmt.Errorf("reading chat settings: %w", err)
	}
	out := settings.Defaults(chatID)
	if len(fields) == 0 {
		return out, nil
	}
	if v, ok := fields[fieldDefaultSurface]; ok {
		if out.DefaultSurface, err = strconv.Atoi(v); err != nil {
			return settings.ChatSettings{}, fmt.Errorf("decoding %s: %w", fieldDefaultSurface, err)
		}
	}
	if v, ok := fields[fieldActive]; ok {
		if out.Active, err = strconv.ParseBool(v); err != nil {
			return settings.ChatSettings{}, fmt.Errorf("decoding %s: %w", fieldActive, err)
		}
	}
	if v, ok := fields[fieldUpdatedAt]; ok {
		if out.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return settings.ChatSettings{}, fmt.Errorf("decoding %s: %w", fieldUpdatedAt, err)
		}
	}
	return out, nil
}

// SetDefaultSurface stores the chat's surface override; 0 clears it.
func (s *ChatSettingsStore) SetDefaultSurface(ctx context.Context, chatID string, surface int) error {
	if err := settings.Validate(chatID, surface); err != nil {
		return err
	}
	return s.write(ctx, chatID, fieldDefaultSurface, strconv.Itoa(surface))
}

// SetActive stores the chat's active flag.
func (s *ChatSettingsStore) SetActive(ctx context.Context, chatID string, active bool) error {
	if err := settings.Validate(chatID, 0); err != nil {
		return err
	}
	return s.write(ctx, chatID, fieldActive, strconv.FormatBool(active))
}

func (s *ChatSettingsStore) write(ctx context.Context, chatID, field, value string) error {
	err := s.client.HSet(ctx, s.key(chatID),
		field, value,
		fieldUpdatedAt, s.now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	return nil
}
