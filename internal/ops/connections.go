package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/suhba/internal/db"
	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/social"
)

// ConnectionOutput wraps a connection edge.
type ConnectionOutput struct {
	Connection *social.ConnectionEdge `json:"connection"`
}

// RequestConnectionInput contains parameters for RequestConnection.
type RequestConnectionInput struct {
	RequesterID string // required
	RecipientID string // required
	Message     string // optional
}

// RequestConnection creates a pending edge between two profiles.
func RequestConnection(ctx context.Context, store *db.Store, input RequestConnectionInput) (*ConnectionOutput, error) {
	requesterID, err := requireID("requester_id", input.RequesterID)
	if err != nil {
		return nil, err
	}
	recipientID, err := requireID("recipient_id", input.RecipientID)
	if err != nil {
		return nil, err
	}
	if requesterID == recipientID {
		return nil, errors.NewInvalidRequest("cannot request a connection with yourself")
	}
	message := strings.TrimSpace(input.Message)
	if social.CountChars(message) > MaxMessageChars {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("message must be at most %d characters", MaxMessageChars))
	}

	for _, id := range []string{requesterID, recipientID} {
		if _, err := store.Profile(ctx, id); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	edge := &social.ConnectionEdge{
		ID:          newID(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      social.StatusPending,
		Strength:    0,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateConnection(ctx, edge); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return nil, liveConflict(ctx, store, requesterID, recipientID)
		}
		return nil, err
	}
	return &ConnectionOutput{Connection: edge}, nil
}

// liveConflict describes the edge that blocks a new request.
func liveConflict(ctx context.Context, store *db.Store, a, b string) error {
	existing, err := store.LiveConnection(ctx, a, b)
	if err != nil {
		return db.ErrLiveConnectionExists
	}
	conflict := errors.NewConflict(fmt.Sprintf("connection %s already exists with status %s", existing.ID, existing.Status))
	conflict.Details = map[string]any{"connection_id": existing.ID, "status": string(existing.Status)}
	return conflict
}

// Respond actions.
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
	ActionBlock   = "block"
)

// RespondInput contains parameters for the respond operations.
type RespondInput struct {
	ConnectionID string // required
	ActorID      string // required
	Action       string // accept, decline, block (RespondConnection only)
}

// RespondConnection dispatches to Accept, Decline, or Block by Action.
func RespondConnection(ctx context.Context, store *db.Store, input RespondInput) (*ConnectionOutput, error) {
	switch strings.ToLower(strings.TrimSpace(input.Action)) {
	case ActionAccept:
		return AcceptConnection(ctx, store, input)
	case ActionDecline:
		return DeclineConnection(ctx, store, input)
	case ActionBlock:
		return BlockConnection(ctx, store, input)
	default:
		return nil, errors.NewInvalidRequest("action must be one of: accept, decline, block")
	}
}

// AcceptConnection moves a pending edge to accepted. Only the recipient may
// accept.
func AcceptConnection(ctx context.Context, store *db.Store, input RespondInput) (*ConnectionOutput, error) {
	return transition(ctx, store, input, social.StatusAccepted, true)
}

// DeclineConnection moves a pending edge to declined. Only the recipient may
// decline.
func DeclineConnection(ctx context.Context, store *db.Store, input RespondInput) (*ConnectionOutput, error) {
	return transition(ctx, store, input, social.StatusDeclined, true)
}

// BlockConnection moves a pending or accepted edge to blocked. Either party
// may block.
func BlockConnection(ctx context.Context, store *db.Store, input RespondInput) (*ConnectionOutput, error) {
	return transition(ctx, store, input, social.StatusBlocked, false)
}

func transition(ctx context.Context, store *db.Store, input RespondInput, to social.ConnectionStatus, recipientOnly bool) (*ConnectionOutput, error) {
	id, err := requireID("connection_id", input.ConnectionID)
	if err != nil {
		return nil, err
	}
	actorID, err := requireID("actor_id", input.ActorID)
	if err != nil {
		return nil, err
	}

	edge, err := store.Connection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !edge.Involves(actorID) {
		return nil, errors.NewForbidden("actor is not a party to this connection")
	}
	if recipientOnly && edge.RecipientID != actorID {
		return nil, errors.NewForbidden(fmt.Sprintf("only the recipient may %s a connection request", verb(to)))
	}
	if !social.CanTransition(edge.Status, to) {
		return nil, errors.NewInvalidTransition(id, string(edge.Status), string(to))
	}

	now := time.Now().UTC()
	ok, err := store.Transition(ctx, id, to, social.SourceStatuses(to), now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another transition
		current, err := store.Connection(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, errors.NewInvalidTransition(id, string(current.Status), string(to))
	}

	edge.Status = to
	edge.UpdatedAt = now
	return &ConnectionOutput{Connection: edge}, nil
}

func verb(to social.ConnectionStatus) string {
	switch to {
	case social.StatusAccepted:
		return ActionAccept
	case social.StatusDeclined:
		return ActionDecline
	default:
		return ActionBlock
	}
}

// InteractInput contains parameters for RecordInteraction.
type InteractInput struct {
	ConnectionID string // required
	Type         string // required, one of the interaction types
}

// InteractOutput contains the result of RecordInteraction.
type InteractOutput struct {
	InteractionID string                 `json:"interaction_id"`
	ConnectionID  string                 `json:"connection_id"`
	Type          social.InteractionType `json:"type"`
	Strength      int                    `json:"strength"`
}

// RecordInteraction logs an interaction on an accepted connection and
// raises its strength by the type's increment.
func RecordInteraction(ctx context.Context, store *db.Store, input InteractInput) (*InteractOutput, error) {
	id, err := requireID("connection_id", input.ConnectionID)
	if err != nil {
		return nil, err
	}
	typ := social.InteractionType(strings.ToLower(strings.TrimSpace(input.Type)))
	delta, ok := social.StrengthDelta(typ)
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown interaction type %q", input.Type))
	}

	if err := requireAccepted(ctx, store, id); err != nil {
		return nil, err
	}

	rec := &social.InteractionRecord{
		ID:           newID(),
		ConnectionID: id,
		Type:         typ,
		CreatedAt:    time.Now().UTC(),
	}
	strength, err := store.RecordInteraction(ctx, rec, delta)
	if err != nil {
		return nil, notAcceptedOnRace(err, id)
	}
	return &InteractOutput{
		InteractionID: rec.ID,
		ConnectionID:  id,
		Type:          typ,
		Strength:      strength,
	}, nil
}

// InteractionsInput contains parameters for ListInteractions.
type InteractionsInput struct {
	ConnectionID string // required
	Limit        int    // 0 returns the whole log; capped at MaxFeedLimit
}

// InteractionsOutput lists a connection's interaction log.
type InteractionsOutput struct {
	ConnectionID string                     `json:"connection_id"`
	Strength     int                        `json:"strength"`
	Interactions []social.InteractionRecord `json:"interactions"`
}

// ListInteractions returns a connection's interaction log, oldest first,
// in any status.
func ListInteractions(ctx context.Context, store *db.Store, input InteractionsInput) (*InteractionsOutput, error) {
	id, err := requireID("connection_id", input.ConnectionID)
	if err != nil {
		return nil, err
	}
	limit, err := clampLimit(input.Limit, MaxFeedLimit)
	if err != nil {
		return nil, err
	}

	edge, err := store.Connection(ctx, id)
	if err != nil {
		return nil, err
	}
	recs, err := store.Interactions(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []social.InteractionRecord{}
	}
	return &InteractionsOutput{ConnectionID: id, Strength: edge.Strength, Interactions: recs}, nil
}

// AdjustStrengthInput contains parameters for AdjustStrength.
type AdjustStrengthInput struct {
	ConnectionID string // required
	Delta        int    // any sign or size; the result is clamped to [0, 100]
}

// StrengthOutput reports a connection's strength after an update.
type StrengthOutput struct {
	ConnectionID string `json:"connection_id"`
	Strength     int    `json:"strength"`
}

// AdjustStrength applies an atomic clamped delta to an accepted connection.
func AdjustStrength(ctx context.Context, store *db.Store, input AdjustStrengthInput) (*StrengthOutput, error) {
	id, err := requireID("connection_id", input.ConnectionID)
	if err != nil {
		return nil, err
	}
	if err := requireAccepted(ctx, store, id); err != nil {
		return nil, err
	}

	strength, err := store.AdjustStrength(ctx, id, input.Delta, time.Now().UTC())
	if err != nil {
		return nil, notAcceptedOnRace(err, id)
	}
	return &StrengthOutput{ConnectionID: id, Strength: strength}, nil
}

func requireAccepted(ctx context.Context, store *db.Store, id string) error {
	edge, err := store.Connection(ctx, id)
	if err != nil {
		return err
	}
	if edge.Status != social.StatusAccepted {
		return notAccepted(id, edge.Status)
	}
	return nil
}

func notAccepted(id string, status social.ConnectionStatus) error {
	err := errors.NewConflict(fmt.Sprintf("connection %s is %s; strength changes only while accepted", id, status))
	err.Details = map[string]any{"connection_id": id, "status": string(status)}
	return err
}

// notAcceptedOnRace maps the store's "no accepted row" result, which means
// the edge left accepted after the status check.
func notAcceptedOnRace(err error, id string) error {
	if errors.Is(err, errors.ErrNotFound) {
		return notAccepted(id, "no longer accepted")
	}
	return err
}
