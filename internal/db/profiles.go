package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/social"
)

const profileColumns = `
	id, username, display_name, avatar_url, bio, interests_json, location,
	last_active_at, beneficial_count, traits_json, mentor_eligible, created_at`

// GetProfile retrieves a profile by id.
func GetProfile(ctx context.Context, q Querier, id string) (*social.Profile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("profile", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return p, nil
}

// ListCandidates returns profiles eligible for matching, most recently
// active first.
func ListCandidates(ctx context.Context, q Querier, query social.CandidateQuery) ([]*social.Profile, error) {
	sqlQuery := `SELECT ` + profileColumns + ` FROM profiles WHERE 1 = 1`
	var args []any

	if !query.ActiveSince.IsZero() {
		sqlQuery += ` AND last_active_at IS NOT NULL AND last_active_at >= ?`
		args = append(args, toUnix(query.ActiveSince))
	}
	if query.MentorOnly {
		sqlQuery += ` AND mentor_eligible = 1`
	}
	if len(query.ExcludeIDs) > 0 {
		sqlQuery += ` AND id NOT IN (` + placeholders(len(query.ExcludeIDs)) + `)`
		args = append(args, stringArgs(query.ExcludeIDs)...)
	}
	sqlQuery += ` ORDER BY last_active_at DESC, id LIMIT ?`
	args = append(args, sqlLimit(query.Limit))

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*social.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// PeerIDs returns the other party of every edge touching userID whose
// status is one of statuses.
func PeerIDs(ctx context.Context, q Querier, userID string, statuses ...social.ConnectionStatus) ([]string, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `
		SELECT CASE WHEN requester_id = ? THEN recipient_id ELSE requester_id END
		FROM connections
		WHERE (requester_id = ? OR recipient_id = ?)
		  AND status IN (` + placeholders(len(statuses)) + `)`
	args := append([]any{userID, userID, userID}, stringArgs(statuses)...)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}

// SharedCircles returns the names of circles both users belong to.
func SharedCircles(ctx context.Context, q Querier, a, b string) ([]string, error) {
	query := `
		SELECT c.name
		FROM circle_members m1
		JOIN circle_members m2 ON m2.circle_id = m1.circle_id
		JOIN circles c ON c.id = m1.circle_id
		WHERE m1.user_id = ? AND m2.user_id = ?
		ORDER BY c.name`

	return queryStrings(ctx, q, query, a, b)
}

// RecentBeneficialPostIDs returns the ids of posts userID most recently
// marked beneficial, newest first.
func RecentBeneficialPostIDs(ctx context.Context, q Querier, userID string, limit int) ([]string, error) {
	query := `
		SELECT post_id FROM beneficial_marks
		WHERE user_id = ?
		ORDER BY created_at DESC, post_id
		LIMIT ?`

	return queryStrings(ctx, q, query, userID, sqlLimit(limit))
}

// ListCompanions resolves userID's accepted edges to the other party,
// strongest first.
func ListCompanions(ctx context.Context, q Querier, userID string, limit int) ([]social.Companion, error) {
	query := `
		SELECT p.id, p.username, p.display_name, c.id, c.strength
		FROM connections c
		JOIN profiles p ON p.id = CASE WHEN c.requester_id = ? THEN c.recipient_id ELSE c.requester_id END
		WHERE (c.requester_id = ? OR c.recipient_id = ?) AND c.status = 'accepted'
		ORDER BY c.strength DESC, c.updated_at DESC, c.id
		LIMIT ?`

	rows, err := q.QueryContext(ctx, query, userID, userID, userID, sqlLimit(limit))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []social.Companion
	for rows.Next() {
		var c social.Companion
		if err := rows.Scan(&c.ID, &c.Username, &c.DisplayName, &c.ConnectionID, &c.Strength); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// SaveProfile inserts a profile. With upsert, an existing row with the
// same id is overwritten.
func SaveProfile(ctx context.Context, q Querier, p *social.Profile, upsert bool) error {
	interests, err := toJSONList(p.Interests)
	if err != nil {
		return err
	}
	traits, err := toJSONList(p.Traits)
	if err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if upsert {
		query += `
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			bio = excluded.bio,
			interests_json = excluded.interests_json,
			location = excluded.location,
			last_active_at = excluded.last_active_at,
			beneficial_count = excluded.beneficial_count,
			traits_json = excluded.traits_json,
			mentor_eligible = excluded.mentor_eligible,
			created_at = excluded.created_at`
	}

	_, err = q.ExecContext(ctx, query,
		p.ID, p.Username, p.DisplayName, toNullString(p.AvatarURL), toNullString(p.Bio),
		interests, toNullString(p.Location), toNullUnix(p.LastActiveAt), p.BeneficialCount,
		traits, boolToInt(p.MentorEligible), toUnix(p.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict(fmt.Sprintf("profile %q or username %q already exists", p.ID, p.Username))
		}
		return errors.NewInternal(err)
	}
	return nil
}

// SaveCircle inserts a circle, optionally overwriting by id.
func SaveCircle(ctx context.Context, q Querier, c social.Circle, upsert bool) error {
	query := `INSERT INTO circles (id, name) VALUES (?, ?)`
	if upsert {
		query += ` ON CONFLICT(id) DO UPDATE SET name = excluded.name`
	}
	if _, err := q.ExecContext(ctx, query, c.ID, c.Name); err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict(fmt.Sprintf("circle %q already exists", c.ID))
		}
		return errors.NewInternal(err)
	}
	return nil
}

// SaveMembership records that a user joined a circle.
func SaveMembership(ctx context.Context, q Querier, m social.CircleMembership, upsert bool) error {
	query := `INSERT INTO circle_members (user_id, circle_id, joined_at) VALUES (?, ?, ?)`
	if upsert {
		query += ` ON CONFLICT(user_id, circle_id) DO UPDATE SET joined_at = excluded.joined_at`
	}
	if _, err := q.ExecContext(ctx, query, m.UserID, m.CircleID, toUnix(m.JoinedAt)); err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict(fmt.Sprintf("user %q is already in circle %q", m.UserID, m.CircleID))
		}
		return errors.NewInternal(err)
	}
	return nil
}

func queryStrings(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// scanProfile scans a single row into a Profile struct.
func scanProfile(row scanner) (*social.Profile, error) {
	var (
		p          social.Profile
		avatarURL  sql.NullString
		bio        sql.NullString
		interests  sql.NullString
		location   sql.NullString
		lastActive sql.NullInt64
		traits     sql.NullString
		mentor     int
		createdAt  int64
	)

	err := row.Scan(
		&p.ID, &p.Username, &p.DisplayName, &avatarURL, &bio, &interests, &location,
		&lastActive, &p.BeneficialCount, &traits, &mentor, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	p.AvatarURL = avatarURL.String
	p.Bio = bio.String
	p.Location = location.String
	p.LastActiveAt = fromNullUnix(lastActive)
	p.MentorEligible = mentor != 0
	p.CreatedAt = fromUnix(createdAt)

	if p.Interests, err = fromJSONList(interests); err != nil {
		return nil, err
	}
	if p.Traits, err = fromJSONList(traits); err != nil {
		return nil, err
	}
	return &p, nil
}
