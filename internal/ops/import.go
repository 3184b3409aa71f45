package ops

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/db"
	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/logging"
	"github.com/hpungsan/suhba/internal/social"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Counts   map[string]int `json:"counts,omitempty"`
	Errors   []ImportError  `json:"errors"`
}

// ImportError describes one record that could not be imported.
type ImportError struct {
	Kind    string `json:"kind,omitempty"`
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import error codes.
const (
	ImportParseError    = "PARSE_ERROR"
	ImportInvalidRecord = "INVALID_RECORD"
	ImportCollision     = "ID_COLLISION"
)

// Import loads a YAML or JSON fixture into the store in one transaction.
//
// In error mode the first invalid or colliding record aborts the import and
// nothing is written. In replace mode existing rows are overwritten and bad
// records are skipped and reported.
func Import(ctx context.Context, store *db.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}
	if err := ValidateImportPath(input.Path, cfg); err != nil {
		return nil, err
	}

	file, err := openFixture(input.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var fx social.Fixture
	if err := yaml.NewDecoder(file).Decode(&fx); err != nil && !stderrors.Is(err, io.EOF) {
		return &ImportOutput{
			Errors: []ImportError{{Code: ImportParseError, Message: fmt.Sprintf("invalid fixture: %v", err)}},
		}, nil
	}

	tx, err := store.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	imp := &importer{
		ctx:    ctx,
		tx:     tx,
		upsert: input.Mode == ImportModeReplace,
		now:    time.Now().UTC(),
		out:    &ImportOutput{Counts: map[string]int{}},
	}
	if err := imp.run(&fx); err != nil {
		if stderrors.Is(err, errAbort) {
			return &ImportOutput{Imported: 0, Skipped: 0, Errors: imp.out.Errors}, nil
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	logging.Info().
		Str("path", input.Path).
		Str("mode", string(input.Mode)).
		Int("imported", imp.out.Imported).
		Int("skipped", imp.out.Skipped).
		Msg("fixture imported")
	return imp.out, nil
}

// errAbort stops an error-mode import after the first bad record.
var errAbort = stderrors.New("import aborted")

type importer struct {
	ctx    context.Context
	tx     *sql.Tx
	upsert bool
	now    time.Time
	out    *ImportOutput
}

func (im *importer) run(fx *social.Fixture) error {
	steps := []func(*social.Fixture) error{
		im.profiles,
		im.circles,
		im.memberships,
		im.connections,
		im.posts,
		im.marks,
		im.comments,
	}
	for _, step := range steps {
		if err := step(fx); err != nil {
			return err
		}
	}
	return nil
}

// record applies the outcome of saving one record. Domain errors are
// reported per record; anything else fails the whole import.
func (im *importer) record(kind string, index int, id string, err error) error {
	if err == nil {
		im.out.Imported++
		im.out.Counts[kind]++
		return nil
	}

	var sErr *errors.SuhbaError
	if !stderrors.As(err, &sErr) {
		return errors.NewInternal(err)
	}
	code := ImportInvalidRecord
	switch sErr.Code {
	case errors.ErrConflict:
		code = ImportCollision
	case errors.ErrInvalidRequest:
	default:
		return err
	}

	im.out.Errors = append(im.out.Errors, ImportError{
		Kind:    kind,
		Index:   index,
		ID:      id,
		Code:    code,
		Message: sErr.Message,
	})
	if !im.upsert {
		return errAbort
	}
	im.out.Skipped++
	return nil
}

func (im *importer) profiles(fx *social.Fixture) error {
	for i, r := range fx.Profiles {
		id := idOrNew(r.ID)
		err := func() error {
			if strings.TrimSpace(r.Username) == "" {
				return errors.NewInvalidRequest("username is required")
			}
			created, err := parseTime("created_at", r.CreatedAt, im.now)
			if err != nil {
				return err
			}
			lastActive, err := parseOptionalTime("last_active_at", r.LastActiveAt)
			if err != nil {
				return err
			}
			return db.SaveProfile(im.ctx, im.tx, &social.Profile{
				ID:              id,
				Username:        strings.TrimSpace(r.Username),
				DisplayName:     strings.TrimSpace(r.DisplayName),
				AvatarURL:       r.AvatarURL,
				Bio:             r.Bio,
				Interests:       r.Interests,
				Location:        r.Location,
				LastActiveAt:    lastActive,
				BeneficialCount: r.BeneficialCount,
				Traits:          r.Traits,
				MentorEligible:  r.MentorEligible,
				CreatedAt:       created,
			}, im.upsert)
		}()
		if err := im.record("profile", i, id, err); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) circles(fx *social.Fixture) error {
	for i, r := range fx.Circles {
		id := idOrNew(r.ID)
		var err error
		if strings.TrimSpace(r.Name) == "" {
			err = errors.NewInvalidRequest("name is required")
		} else {
			err = db.SaveCircle(im.ctx, im.tx, social.Circle{ID: id, Name: strings.TrimSpace(r.Name)}, im.upsert)
		}
		if err := im.record("circle", i, id, err); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) memberships(fx *social.Fixture) error {
	for i, r := range fx.Memberships {
		err := func() error {
			if strings.TrimSpace(r.UserID) == "" || strings.TrimSpace(r.CircleID) == "" {
				return errors.NewInvalidRequest("user_id and circle_id are required")
			}
			joined, err := parseTime("joined_at", r.JoinedAt, im.now)
			if err != nil {
				return err
			}
			return db.SaveMembership(im.ctx, im.tx, social.CircleMembership{
				UserID:   strings.TrimSpace(r.UserID),
				CircleID: strings.TrimSpace(r.CircleID),
				JoinedAt: joined,
			}, im.upsert)
		}()
		if err := im.record("membership", i, r.UserID+"/"+r.CircleID, err); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) connections(fx *social.Fixture) error {
	for i, r := range fx.Connections {
		id := idOrNew(r.ID)
		err := func() error {
			requester, recipient := strings.TrimSpace(r.RequesterID), strings.TrimSpace(r.RecipientID)
			if requester == "" || recipient == "" {
				return errors.NewInvalidRequest("requester_id and recipient_id are required")
			}
			if requester == recipient {
				return errors.NewInvalidRequest("requester_id and recipient_id must differ")
			}
			status := social.StatusPending
			if s := strings.TrimSpace(r.Status); s != "" {
				status = social.ConnectionStatus(strings.ToLower(s))
			}
			if !status.Valid() {
				return errors.NewInvalidRequest(fmt.Sprintf("unknown status %q", r.Status))
			}
			if r.Strength < social.MinStrength || r.Strength > social.MaxStrength {
				return errors.NewInvalidRequest(fmt.Sprintf("strength must be between %d and %d", social.MinStrength, social.MaxStrength))
			}
			created, err := parseTime("created_at", r.CreatedAt, im.now)
			if err != nil {
				return err
			}
			interacted, err := parseOptionalTime("last_interaction_at", r.LastInteractionAt)
			if err != nil {
				return err
			}

			edge := &social.ConnectionEdge{
				ID:                id,
				RequesterID:       requester,
				RecipientID:       recipient,
				Status:            status,
				Strength:          r.Strength,
				Message:           r.Message,
				CreatedAt:         created,
				UpdatedAt:         created,
				LastInteractionAt: interacted,
			}
			if im.upsert {
				return db.UpsertConnection(im.ctx, im.tx, edge)
			}
			if _, err := db.GetConnection(im.ctx, im.tx, id); err == nil {
				return errors.NewConflict(fmt.Sprintf("connection %q already exists", id))
			} else if !errors.Is(err, errors.ErrNotFound) {
				return err
			}
			return db.InsertConnection(im.ctx, im.tx, edge)
		}()
		if err := im.record("connection", i, id, err); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) posts(fx *social.Fixture) error {
	for i, r := range fx.Posts {
		id := idOrNew(r.ID)
		err := func() error {
			if strings.TrimSpace(r.AuthorID) == "" {
				return errors.NewInvalidRequest("author_id is required")
			}
			created, err := parseTime("created_at", r.CreatedAt, im.now)
			if err != nil {
				return err
			}
			return db.SavePost(im.ctx, im.tx, &social.Post{
				ID:              id,
				AuthorID:        strings.TrimSpace(r.AuthorID),
				Content:         r.Content,
				CreatedAt:       created,
				BeneficialCount: r.BeneficialCount,
				CommentCount:    r.CommentCount,
				Pinned:          r.Pinned,
				CircleID:        strings.TrimSpace(r.CircleID),
			}, im.upsert)
		}()
		if err := im.record("post", i, id, err); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) marks(fx *social.Fixture) error {
	for i, r := range fx.BeneficialMarks {
		err := func() error {
			if strings.TrimSpace(r.PostID) == "" || strings.TrimSpace(r.UserID) == "" {
				return errors.NewInvalidRequest("post_id and user_id are required")
			}
			at, err := parseTime("created_at", r.CreatedAt, im.now)
			if err != nil {
				return err
			}
			return db.SaveBeneficialMark(im.ctx, im.tx, strings.TrimSpace(r.PostID), strings.TrimSpace(r.UserID), at, im.upsert)
		}()
		if err := im.record("beneficial_mark", i, r.PostID+"/"+r.UserID, err); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) comments(fx *social.Fixture) error {
	for i, r := range fx.Comments {
		id := idOrNew(r.ID)
		err := func() error {
			if strings.TrimSpace(r.PostID) == "" || strings.TrimSpace(r.UserID) == "" {
				return errors.NewInvalidRequest("post_id and user_id are required")
			}
			at, err := parseTime("created_at", r.CreatedAt, im.now)
			if err != nil {
				return err
			}
			return db.SaveComment(im.ctx, im.tx, id, strings.TrimSpace(r.PostID), strings.TrimSpace(r.UserID), r.Content, at, im.upsert)
		}()
		if err := im.record("comment", i, id, err); err != nil {
			return err
		}
	}
	return nil
}

func idOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return newID()
}

// parseTime parses an RFC 3339 timestamp, returning def for an empty value.
func parseTime(field, value string, def time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest(fmt.Sprintf("%s must be an RFC 3339 timestamp", field))
	}
	return t.UTC(), nil
}

func parseOptionalTime(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseTime(field, value, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
