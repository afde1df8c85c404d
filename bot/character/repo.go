package character

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/halvden/scribebot/core/logger"
)

// Repo persists characters into Postgres.
type Repo struct {
	db *sqlx.DB
}

// NewRepo wraps the given database handle.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Insert saves the character and its class link in one transaction. Either
// both rows land or neither does.
func (r *Repo) Insert(ctx context.Context, ownerID int64, ch Character) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin character insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO characters (
			owner_id, name, species, appearance,
			likes, dislikes, companions, extra,
			motivations, alignment, backstory
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		ownerID, ch.Name, ch.Species, ch.Appearance,
		ch.Likes, ch.Dislikes, ch.Companions, ch.Extra,
		ch.Motivations, ch.Alignment, ch.Backstory,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert character: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO character_classes (character_id, class_id) VALUES ($1, $2)`,
		id, ch.Class.ID(),
	); err != nil {
		return fmt.Errorf("insert character class: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit character insert: %w", err)
	}

	logger.Info(ctx, "character", "character.saved",
		slog.Int64("id", id),
		slog.Int64("owner", ownerID),
		slog.String("class", ch.Class.String()))
	return nil
}

// CountByOwner returns how many characters the owner has saved.
func (r *Repo) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM characters WHERE owner_id = $1`, ownerID); err != nil {
		return 0, fmt.Errorf("count characters: %w", err)
	}
	return n, nil
}
