// Package profile tracks which Telegram users are registered with the bot.
// Registration gates every feature that writes to the database.
package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/halvden/scribebot/core/logger"
)

// Repo stores registered users in Postgres.
type Repo struct {
	db *sqlx.DB
}

// NewRepo wraps the given database handle.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Exists reports whether the user is registered.
func (r *Repo) Exists(ctx context.Context, userID int64) (bool, error) {
	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM users WHERE telegram_id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return ok, nil
}

// Insert registers the user. Registering twice is a no-op.
func (r *Repo) Insert(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (telegram_id) VALUES ($1) ON CONFLICT (telegram_id) DO NOTHING`,
		userID)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	logger.Info(ctx, "profile", "profile.registered", slog.Int64("user", userID))
	return nil
}

// Delete removes the user and, through cascade, everything they own.
func (r *Repo) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE telegram_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deregister user: %w", err)
	}
	logger.Info(ctx, "profile", "profile.deregistered", slog.Int64("user", userID))
	return nil
}
