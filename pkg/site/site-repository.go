package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/silktrader/kavita/pkg/storage/sqlite"
)

type Storer interface {
	GetWriter(ctx context.Context) (*Writer, error)
	IncrementHits(ctx context.Context, key string) (int64, error)
	Initialise(ctx context.Context) error
	Ping(ctx context.Context) error
}

type Store struct {
	Connection *sql.DB
}

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

// GetWriter returns the first writer, or nil when none was seeded.
func (ss *Store) GetWriter(ctx context.Context) (*Writer, error) {
	var writer Writer
	if err := ss.Connection.QueryRowContext(ctx, `
		SELECT id, name, bio, email, social, avatar_url FROM writers ORDER BY id LIMIT 1`).Scan(
		&writer.Id, &writer.Name, &writer.Bio, &writer.Email, &writer.Social, &writer.AvatarURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &writer, nil
}

// IncrementHits bumps the named counter, creating it on first use, and returns the updated count.
func (ss *Store) IncrementHits(ctx context.Context, key string) (count int64, err error) {
	err = ss.Connection.QueryRowContext(ctx, `
		INSERT INTO site_stats (key, count) VALUES (?, 1)
		ON CONFLICT (key) DO UPDATE SET count = count + 1
		RETURNING count`, key).Scan(&count)
	return count, err
}

// Initialise applies the schema and seeds the default writer when there's none, in a single transaction.
// It may be called any number of times.
func (ss *Store) Initialise(ctx context.Context) (err error) {
	tx, err := ss.Connection.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = sqlite.ApplySchema(ctx, tx); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO writers (name, bio) SELECT ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM writers)`,
		defaultWriter.Name, defaultWriter.Bio); err != nil {
		return fmt.Errorf("seeding writer: %w", err)
	}

	return tx.Commit()
}

func (ss *Store) Ping(ctx context.Context) error {
	return ss.Connection.PingContext(ctx)
}
