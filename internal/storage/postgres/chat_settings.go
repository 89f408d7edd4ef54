package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dicebot/internal/settings"
)

// ChatSettingsRepository implements settings.Store on the chat_settings table.
type ChatSettingsRepository struct {
	db *pgxpool.Pool
}

var _ settings.Store = (*ChatSettingsRepository)(nil)

// NewChatSettingsRepository creates a ChatSettingsRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the chat_settings
// migration applied.
func NewChatSettingsRepository(db *pgxpool.Pool) *ChatSettingsRepository {
	return &ChatSettingsRepository{db: db}
}

// Get returns the stored settings for chatID.
//
// Postcondition: Returns settings.Defaults(chatID) when no row exists.
func (r *ChatSettingsRepository) Get(ctx context.Context, chatID string) (settings.ChatSettings, error) {
	if chatID == "" {
		return settings.ChatSettings{}, settings.ErrInvalidChatID
	}
	s := settings.ChatSettings{ChatID: chatID}
	err := r.db.QueryRow(ctx,
		`SELECT default_surface, active, updated_at
		 FROM chat_settings WHERE chat_id = $1`,
		chatID,
	).Scan(&s.DefaultSurface, &s.Active, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return settings.Defaults(chatID), nil
	}
	if err != nil {
		return settings.ChatSettings{}, fmt.Errorf("querying chat settings: %w", err)
	}
	return s, nil
}

// SetDefaultSurface upserts the chat's surface override.
//
// Precondition: surface >= 0; 0 clears the override.
func (r *ChatSettingsRepository) SetDefaultSurface(ctx context.Context, chatID string, surface int) error {
	if err := settings.Validate(chatID, surface); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_settings (chat_id, default_surface)
		 VALUES ($1, $2)
		 ON CONFLICT (chat_id)
		 DO UPDATE SET default_surface = EXCLUDED.default_surface, updated_at = NOW()`,
		chatID, surface,
	)
	if err != nil {
		return fmt.Errorf("saving default surface: %w", err)
	}
	return nil
}

// SetActive upserts the chat's active flag.
func (r *ChatSettingsRepository) SetActive(ctx context.Context, chatID string, active bool) error {
	if err := settings.Validate(chatID, 0); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_settings (chat_id, active)
		 VALUES ($1, $2)
		 ON CONFLICT (chat_id)
		 DO UPDATE SET active = EXCLUDED.active, updated_at = NOW()`,
		chatID, active,
	)
	if err != nil {
		return fmt.Errorf("saving active flag: %w", err)
	}
	return nil
}
