package poems

import (
	"context"
	"fmt"

	"github.com/silktrader/kavita/pkg/ntime"
	"github.com/silktrader/kavita/pkg/storage/sqlite"
	"github.com/silktrader/kavita/pkg/subscribers"
)

/*
React records the subscriber's reaction, replacing any earlier one: each subscriber holds at most one reaction per poem.

The upsert settles concurrent first reactions within SQLite itself. The insert selects from poems, so that unknown
poems affect no rows and are reported as ErrNotFound rather than as foreign key failures.
*/
func (ps *Store) React(ctx context.Context, poemId, subscriberId int64, like bool) error {
	result, err := ps.Connection.ExecContext(ctx, `
		INSERT INTO reactions (poem_id, subscriber_id, is_like)
		SELECT id, ?, ? FROM poems WHERE id = ?
		ON CONFLICT (poem_id, subscriber_id) DO UPDATE SET is_like = excluded.is_like`,
		subscriberId, like, poemId)
	if err != nil {
		// the upsert shouldn't raise these, still another writer having stored the reaction is no failure
		if sqlite.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("storing reaction: %w", err)
	}
	return requireAffected(result)
}

// CountReactions tallies likes and dislikes on every call; there's no cached counter to drift.
func (ps *Store) CountReactions(ctx context.Context, poemId int64) (reactions Reactions, err error) {
	err = ps.Connection.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN is_like THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_like THEN 0 ELSE 1 END), 0)
		FROM reactions WHERE poem_id = ?`, poemId).Scan(&reactions.Likes, &reactions.Dislikes)
	return reactions, err
}

// AddComment stores trimmed, non-empty, comments. Neither length nor duplicates are checked.
func (ps *Store) AddComment(ctx context.Context, poemId, subscriberId int64, data CommentData) error {
	data.Normalise()
	if err := data.Validate(); err != nil {
		return err
	}

	result, err := ps.Connection.ExecContext(ctx, `
		INSERT INTO comments (poem_id, subscriber_id, text, created_at)
		SELECT id, ?, ?, ? FROM poems WHERE id = ?`,
		subscriberId, data.Text, ntime.Now(), poemId)
	if err != nil {
		return fmt.Errorf("storing comment: %w", err)
	}
	return requireAffected(result)
}

// GetComments returns the poem's comments, newest first, always as a collection.
func (ps *Store) GetComments(ctx context.Context, poemId int64) ([]Comment, error) {
	var comments = make([]Comment, 0)
	rows, err := ps.Connection.QueryContext(ctx, `
		SELECT comments.id, subscribers.email, subscribers.name, text, comments.created_at FROM comments
		JOIN subscribers ON comments.subscriber_id = subscribers.id
		WHERE poem_id = ?
		ORDER BY comments.created_at DESC, comments.id DESC`, poemId)
	if err != nil {
		return nil, err
	}

	defer closeRows(rows)

	for rows.Next() {
		var comment Comment
		var author subscribers.Subscriber
		if err = rows.Scan(&comment.Id, &author.Email, &author.Name, &comment.Text, &comment.Created); err != nil {
			return comments, err
		}
		comment.AuthorName = author.DisplayName()
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
