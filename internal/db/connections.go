package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/social"
)

const connectionColumns = `
	id, requester_id, recipient_id, status, strength, message,
	created_at, updated_at, last_interaction_at`

// ErrLiveConnectionExists is returned when a pair already has a pending,
// accepted, or blocked edge.
var ErrLiveConnectionExists = &errors.SuhbaError{
	Code:    errors.ErrConflict,
	Status:  409,
	Message: "a pending, accepted, or blocked connection already exists for this pair",
}

// InsertConnection stores a new connection edge. The partial unique index on
// the ordered pair rejects a second live edge for the same two profiles.
func InsertConnection(ctx context.Context, q Querier, e *social.ConnectionEdge) error {
	low, high := social.PairKey(e.RequesterID, e.RecipientID)

	query := `
		INSERT INTO connections (
			id, requester_id, recipient_id, pair_low, pair_high, status, strength,
			message, created_at, updated_at, last_interaction_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.ExecContext(ctx, query,
		e.ID, e.RequesterID, e.RecipientID, low, high, string(e.Status),
		social.ClampStrength(e.Strength), toNullString(e.Message),
		toUnix(e.CreatedAt), toUnix(e.UpdatedAt), toNullUnix(e.LastInteractionAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrLiveConnectionExists
		}
		return errors.NewInternal(err)
	}
	return nil
}

// UpsertConnection inserts or overwrites a connection by id.
func UpsertConnection(ctx context.Context, q Querier, e *social.ConnectionEdge) error {
	low, high := social.PairKey(e.RequesterID, e.RecipientID)

	query := `
		INSERT INTO connections (
			id, requester_id, recipient_id, pair_low, pair_high, status, strength,
			message, created_at, updated_at, last_interaction_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			requester_id = excluded.requester_id,
			recipient_id = excluded.recipient_id,
			pair_low = excluded.pair_low,
			pair_high = excluded.pair_high,
			status = excluded.status,
			strength = excluded.strength,
			message = excluded.message,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_interaction_at = excluded.last_interaction_at`

	_, err := q.ExecContext(ctx, query,
		e.ID, e.RequesterID, e.RecipientID, low, high, string(e.Status),
		social.ClampStrength(e.Strength), toNullString(e.Message),
		toUnix(e.CreatedAt), toUnix(e.UpdatedAt), toNullUnix(e.LastInteractionAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrLiveConnectionExists
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetConnection retrieves a connection edge by id.
func GetConnection(ctx context.Context, q Querier, id string) (*social.ConnectionEdge, error) {
	row := q.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	e, err := scanConnection(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("connection", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// FindLiveConnection returns the pending, accepted, or blocked edge between
// two profiles in either direction.
func FindLiveConnection(ctx context.Context, q Querier, a, b string) (*social.ConnectionEdge, error) {
	low, high := social.PairKey(a, b)
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE pair_low = ? AND pair_high = ? AND status IN (` + placeholders(len(social.LiveStatuses)) + `)`

	args := append([]any{low, high}, stringArgs(social.LiveStatuses)...)
	e, err := scanConnection(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("connection", a+"/"+b)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// TransitionConnection moves an edge to status `to` only if it is currently
// in one of `from`. The check and the write are one statement, so two racing
// callers cannot both succeed. Returns false when no row matched.
func TransitionConnection(ctx context.Context, q Querier, id string, to social.ConnectionStatus, from []social.ConnectionStatus, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	query := `UPDATE connections SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (` + placeholders(len(from)) + `)`
	args := append([]any{string(to), toUnix(at), id}, stringArgs(from)...)

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return false, ErrLiveConnectionExists
		}
		return false, errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return rowsAffected > 0, nil
}

// IncrementStrength adds delta to an accepted edge's strength, clamped to
// [0, 100], in a single statement and returns the new value.
func IncrementStrength(ctx context.Context, q Querier, id string, delta int, at time.Time) (int, error) {
	return incrementStrength(ctx, q, id, delta, at, false)
}

func incrementStrength(ctx context.Context, q Querier, id string, delta int, at time.Time, interacted bool) (int, error) {
	query := `
		UPDATE connections
		SET strength = MAX(?, MIN(?, strength + ?)),
			updated_at = ?`
	args := []any{social.MinStrength, social.MaxStrength, delta, toUnix(at)}
	if interacted {
		query += `, last_interaction_at = ?`
		args = append(args, toUnix(at))
	}
	query += ` WHERE id = ? AND status = 'accepted' RETURNING strength`
	args = append(args, id)

	var strength int
	err := q.QueryRowContext(ctx, query, args...).Scan(&strength)
	if err == sql.ErrNoRows {
		return 0, errors.NewNotFound("accepted connection", id)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return strength, nil
}

// RecordInteraction appends an interaction record and bumps the edge's
// strength and last_interaction_at in one transaction.
func RecordInteraction(ctx context.Context, database *sql.DB, rec *social.InteractionRecord, delta int) (int, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	strength, err := incrementStrength(ctx, tx, rec.ConnectionID, delta, rec.CreatedAt, true)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO interactions (id, connection_id, type, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.ConnectionID, string(rec.Type), toUnix(rec.CreatedAt),
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return strength, nil
}

// ListInteractions returns a connection's interaction log, oldest first.
func ListInteractions(ctx context.Context, q Querier, connectionID string, limit int) ([]social.InteractionRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, connection_id, type, created_at FROM interactions
		WHERE connection_id = ?
		ORDER BY created_at, id
		LIMIT ?`, connectionID, sqlLimit(limit))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []social.InteractionRecord
	for rows.Next() {
		var (
			r         social.InteractionRecord
			typ       string
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.ConnectionID, &typ, &createdAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		r.Type = social.InteractionType(typ)
		r.CreatedAt = fromUnix(createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// scanConnection scans a single row into a ConnectionEdge struct.
func scanConnection(row scanner) (*social.ConnectionEdge, error) {
	var (
		e               social.ConnectionEdge
		status          string
		message         sql.NullString
		createdAt       int64
		updatedAt       int64
		lastInteraction sql.NullInt64
	)

	err := row.Scan(
		&e.ID, &e.RequesterID, &e.RecipientID, &status, &e.Strength, &message,
		&createdAt, &updatedAt, &lastInteraction,
	)
	if err != nil {
		return nil, err
	}

	e.Status = social.ConnectionStatus(status)
	e.Message = message.String
	e.CreatedAt = fromUnix(createdAt)
	e.UpdatedAt = fromUnix(updatedAt)
	e.LastInteractionAt = fromNullUnix(lastInteraction)
	return &e, nil
}
