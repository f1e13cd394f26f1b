package poems

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/silktrader/kavita/pkg/ntime"
	"github.com/silktrader/kavita/pkg/storage/sqlite"
)

type Storer interface {
	List(ctx context.Context, query string, page int) (Page, error)
	Get(ctx context.Context, poemId int64) (*Poem, error)
	IncrementViews(ctx context.Context, poemId int64) error
	Add(ctx context.Context, data AddPoemData) (*Poem, error)
	Delete(ctx context.Context, poemId int64) error

	React(ctx context.Context, poemId, subscriberId int64, like bool) error
	CountReactions(ctx context.Context, poemId int64) (Reactions, error)
	AddComment(ctx context.Context, poemId, subscriberId int64, data CommentData) error
	GetComments(ctx context.Context, poemId int64) ([]Comment, error)
}

type Store struct {
	Connection *sql.DB
}

var ErrNotFound = errors.New("poem not found")

func NewStore(connection *sql.DB) *Store {
	return &Store{connection}
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}

// likeEscaper protects LIKE wildcards in user queries; patterns must declare ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

/*
List returns the requested page of poems, newest first, optionally filtered by a case-insensitive substring of either
title or body. Pages below one are clamped; pages past the end are simply empty.

Ties on the date are broken by id, so that poems added on the same day keep a stable order across pages.
*/
func (ps *Store) List(ctx context.Context, query string, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	var result = Page{Poems: make([]Poem, 0), Number: page, Query: strings.TrimSpace(query)}

	var filter string
	var args []any
	if result.Query != "" {
		var pattern = "%" + likeEscaper.Replace(sqlite.Fold(result.Query)) + "%"
		filter = ` WHERE casefold(title) LIKE ? ESCAPE '\' OR casefold(body) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}

	if err := ps.Connection.QueryRowContext(ctx, `SELECT COUNT(*) FROM poems`+filter, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("counting poems: %w", err)
	}
	result.TotalPages = TotalPages(result.Total)

	rows, err := ps.Connection.QueryContext(ctx, `
		SELECT id, title, body, date_added, background_image, view_count FROM poems`+filter+`
		ORDER BY date_added DESC, id DESC
		LIMIT ? OFFSET ?`,
		append(args, PageSize, (page-1)*PageSize)...)
	if err != nil {
		return result, fmt.Errorf("listing poems: %w", err)
	}

	defer closeRows(rows)

	for rows.Next() {
		var poem Poem
		if err = rows.Scan(&poem.Id, &poem.Title, &poem.Body, &poem.DateAdded, &poem.BackgroundImage,
			&poem.ViewCount); err != nil {
			return result, err
		}
		result.Poems = append(result.Poems, poem)
	}
	return result, rows.Err()
}

func (ps *Store) Get(ctx context.Context, poemId int64) (*Poem, error) {
	var poem Poem
	if err := ps.Connection.QueryRowContext(ctx, `
		SELECT id, title, body, date_added, background_image, view_count FROM poems WHERE id = ?`,
		poemId).Scan(&poem.Id, &poem.Title, &poem.Body, &poem.DateAdded, &poem.BackgroundImage,
		&poem.ViewCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &poem, nil
}

// IncrementViews counts a visit with a single statement, so that concurrent visits are never lost.
func (ps *Store) IncrementViews(ctx context.Context, poemId int64) error {
	result, err := ps.Connection.ExecContext(ctx, `UPDATE poems SET view_count = view_count + 1 WHERE id = ?`, poemId)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Add stores a new poem, dated now unless a valid date is provided.
func (ps *Store) Add(ctx context.Context, data AddPoemData) (*Poem, error) {
	data.Normalise()
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if !data.DateAdded.IsValid() {
		data.DateAdded = ntime.Now()
	}

	result, err := ps.Connection.ExecContext(ctx, `
		INSERT INTO poems (title, body, date_added, background_image) VALUES (?, ?, ?, ?)`,
		data.Title, data.Body, data.DateAdded, data.BackgroundImage)
	if err != nil {
		return nil, fmt.Errorf("adding poem: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Poem{
		Id:              id,
		Title:           data.Title,
		Body:            data.Body,
		DateAdded:       data.DateAdded,
		BackgroundImage: data.BackgroundImage,
	}, nil
}

// Delete removes the poem along with its reactions and comments, atomically. Unknown poems leave everything as it was.
func (ps *Store) Delete(ctx context.Context, poemId int64) (err error) {
	tx, err := ps.Connection.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM reactions WHERE poem_id = ?`, poemId); err != nil {
		return fmt.Errorf("deleting reactions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE poem_id = ?`, poemId); err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM poems WHERE id = ?`, poemId)
	if err != nil {
		return fmt.Errorf("deleting poem: %w", err)
	}
	if err = requireAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}

// requireAffected maps statements that touched no rows to ErrNotFound.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
