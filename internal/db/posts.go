package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/social"
)

const postColumns = `
	id, author_id, content, created_at, beneficial_count, comment_count, pinned, circle_id`

// PostsSince returns posts created at or after since, newest first.
func PostsSince(ctx context.Context, q Querier, since time.Time, limit int) ([]social.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE created_at >= ?
		ORDER BY created_at DESC, id
		LIMIT ?`
	return queryPosts(ctx, q, query, toUnix(since), sqlLimit(limit))
}

// TrendingPosts returns posts created at or after since with at least
// minBeneficial marks, ordered by their trending base score so the limit
// keeps the highest scorers.
func TrendingPosts(ctx context.Context, q Querier, since time.Time, minBeneficial, limit int) ([]social.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE created_at >= ? AND beneficial_count >= ?
		ORDER BY beneficial_count * 10 + comment_count * 5 DESC, created_at DESC, id
		LIMIT ?`
	return queryPosts(ctx, q, query, toUnix(since), minBeneficial, sqlLimit(limit))
}

// CompanionInteractions returns, per post id, the beneficial marks and
// comments the given actors left on those posts, oldest first.
func CompanionInteractions(ctx context.Context, q Querier, postIDs, actorIDs []string) (map[string][]social.PostInteraction, error) {
	out := make(map[string][]social.PostInteraction)
	if len(postIDs) == 0 || len(actorIDs) == 0 {
		return out, nil
	}

	postIn := placeholders(len(postIDs))
	actorIn := placeholders(len(actorIDs))
	query := `
		SELECT b.post_id, b.user_id, p.display_name, p.username, 'liked' AS action, b.created_at AS occurred_at
		FROM beneficial_marks b
		JOIN profiles p ON p.id = b.user_id
		WHERE b.post_id IN (` + postIn + `) AND b.user_id IN (` + actorIn + `)
		UNION ALL
		SELECT c.post_id, c.user_id, p.display_name, p.username, 'commented' AS action, c.created_at AS occurred_at
		FROM comments c
		JOIN profiles p ON p.id = c.user_id
		WHERE c.post_id IN (` + postIn + `) AND c.user_id IN (` + actorIn + `)
		ORDER BY occurred_at, action DESC`

	args := make([]any, 0, 2*(len(postIDs)+len(actorIDs)))
	for range 2 {
		args = append(args, stringArgs(postIDs)...)
		args = append(args, stringArgs(actorIDs)...)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pi          social.PostInteraction
			displayName string
			username    string
			action      string
			at          int64
		)
		if err := rows.Scan(&pi.PostID, &pi.ActorID, &displayName, &username, &action, &at); err != nil {
			return nil, errors.NewInternal(err)
		}
		pi.ActorName = displayName
		if pi.ActorName == "" {
			pi.ActorName = username
		}
		pi.Action = social.Action(action)
		pi.At = fromUnix(at)
		out[pi.PostID] = append(out[pi.PostID], pi)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// SavePost inserts a post, optionally overwriting by id.
func SavePost(ctx context.Context, q Querier, p *social.Post, upsert bool) error {
	query := `INSERT INTO posts (` + postColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += `
		ON CONFLICT(id) DO UPDATE SET
			author_id = excluded.author_id,
			content = excluded.content,
			created_at = excluded.created_at,
			beneficial_count = excluded.beneficial_count,
			comment_count = excluded.comment_count,
			pinned = excluded.pinned,
			circle_id = excluded.circle_id`
	}
	_, err := q.ExecContext(ctx, query,
		p.ID, p.AuthorID, p.Content, toUnix(p.CreatedAt), p.BeneficialCount,
		p.CommentCount, boolToInt(p.Pinned), toNullString(p.CircleID),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict(fmt.Sprintf("post %q already exists", p.ID))
		}
		return errors.NewInternal(err)
	}
	return nil
}

// SaveBeneficialMark records that userID marked postID beneficial.
func SaveBeneficialMark(ctx context.Context, q Querier, postID, userID string, at time.Time, upsert bool) error {
	query := `INSERT INTO beneficial_marks (post_id, user_id, created_at) VALUES (?, ?, ?)`
	if upsert {
		query += ` ON CONFLICT(post_id, user_id) DO UPDATE SET created_at = excluded.created_at`
	}
	if _, err := q.ExecContext(ctx, query, postID, userID, toUnix(at)); err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict(fmt.Sprintf("user %q already marked post %q", userID, postID))
		}
		return errors.NewInternal(err)
	}
	return nil
}

// SaveComment inserts a comment, optionally overwriting by id.
func SaveComment(ctx context.Context, q Querier, id, postID, userID, content string, at time.Time, upsert bool) error {
	query := `INSERT INTO comments (id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`
	if upsert {
		query += `
		ON CONFLICT(id) DO UPDATE SET
			post_id = excluded.post_id,
			user_id = excluded.user_id,
			content = excluded.content,
			created_at = excluded.created_at`
	}
	if _, err := q.ExecContext(ctx, query, id, postID, userID, content, toUnix(at)); err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict(fmt.Sprintf("comment %q already exists", id))
		}
		return errors.NewInternal(err)
	}
	return nil
}

func queryPosts(ctx context.Context, q Querier, query string, args ...any) ([]social.Post, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []social.Post
	for rows.Next() {
		var (
			p         social.Post
			createdAt int64
			pinned    int
			circleID  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &createdAt, &p.BeneficialCount,
			&p.CommentCount, &pinned, &circleID); err != nil {
			return nil, errors.NewInternal(err)
		}
		p.CreatedAt = fromUnix(createdAt)
		p.Pinned = pinned != 0
		p.CircleID = circleID.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
