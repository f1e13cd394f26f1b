package subscribers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/silktrader/kavita/pkg/ntime"
)

type Repository interface {
	GetById(ctx context.Context, id int64) (*Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)
	Subscribe(ctx context.Context, data SubscribeData) (*Subscriber, error)
}

type repository struct {
	Connection *sql.DB
}

var ErrNotFound = errors.New("subscriber not found")

func NewRepository(connection *sql.DB) Repository {
	return &repository{connection}
}

// GetById either returns the subscriber matching the id, or ErrNotFound.
func (sr *repository) GetById(ctx context.Context, id int64) (*Subscriber, error) {
	return sr.scanOne(sr.Connection.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM subscribers WHERE id = ?`, id))
}

func (sr *repository) GetByEmail(ctx context.Context, email string) (*Subscriber, error) {
	return sr.scanOne(sr.Connection.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM subscribers WHERE email = ?`, NormaliseEmail(email)))
}

// Subscribe returns the subscriber owning the normalised email, creating it first when needed.
// Existing subscribers are returned untouched, names included. Concurrent calls for one email race on the UNIQUE
// constraint, which silently discards the losing insert, and then read back the same row.
func (sr *repository) Subscribe(ctx context.Context, data SubscribeData) (*Subscriber, error) {
	data.Normalise()
	if err := data.Validate(); err != nil {
		return nil, err
	}

	if _, err := sr.Connection.ExecContext(ctx, `
		INSERT INTO subscribers (email, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
		data.Email, data.Name, ntime.Now()); err != nil {
		return nil, fmt.Errorf("couldn't add subscriber %q: %w", data.Email, err)
	}

	return sr.GetByEmail(ctx, data.Email)
}

func (sr *repository) scanOne(row *sql.Row) (*Subscriber, error) {
	var subscriber Subscriber
	if err := row.Scan(&subscriber.Id, &subscriber.Email, &subscriber.Name, &subscriber.Created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &subscriber, nil
}
