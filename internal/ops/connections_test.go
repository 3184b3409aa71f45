package ops

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/social"
)

func TestRequestConnection(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	out, err := RequestConnection(ctx, store, RequestConnectionInput{
		RequesterID: "alice",
		RecipientID: "bob",
		Message:     "  Salaam, shall we study together?  ",
	})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	edge := out.Connection
	if edge.Status != social.StatusPending {
		t.Errorf("Status = %s, want pending", edge.Status)
	}
	if edge.Strength != 0 {
		t.Errorf("Strength = %d, want 0", edge.Strength)
	}
	if edge.Message != "Salaam, shall we study together?" {
		t.Errorf("Message = %q, want trimmed message", edge.Message)
	}

	stored, err := store.Connection(ctx, edge.ID)
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}
	if stored.RequesterID != "alice" || stored.RecipientID != "bob" {
		t.Errorf("stored edge = %s -> %s, want alice -> bob", stored.RequesterID, stored.RecipientID)
	}
}

func TestRequestConnection_Validation(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	tests := []struct {
		name  string
		input RequestConnectionInput
		code  errors.ErrorCode
	}{
		{"missing requester", RequestConnectionInput{RecipientID: "bob"}, errors.ErrInvalidRequest},
		{"missing recipient", RequestConnectionInput{RequesterID: "alice"}, errors.ErrInvalidRequest},
		{"self request", RequestConnectionInput{RequesterID: "alice", RecipientID: "alice"}, errors.ErrInvalidRequest},
		{"message too long", RequestConnectionInput{RequesterID: "alice", RecipientID: "bob", Message: strings.Repeat("م", MaxMessageChars+1)}, errors.ErrInvalidRequest},
		{"unknown recipient", RequestConnectionInput{RequesterID: "alice", RecipientID: "nobody"}, errors.ErrNotFound},
		{"unknown requester", RequestConnectionInput{RequesterID: "nobody", RecipientID: "bob"}, errors.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RequestConnection(ctx, store, tc.input)
			assertCode(t, err, tc.code)
		})
	}
}

func TestRequestConnection_MessageAtLimit(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	_, err := RequestConnection(ctx, store, RequestConnectionInput{
		RequesterID: "alice",
		RecipientID: "bob",
		Message:     strings.Repeat("م", MaxMessageChars),
	})
	if err != nil {
		t.Fatalf("expected a %d-character message to be accepted, got: %v", MaxMessageChars, err)
	}
}

func TestRequestConnection_DuplicatePair(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	first, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}

	// Same pair in the opposite direction
	_, err = RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "bob", RecipientID: "alice"})
	assertCode(t, err, errors.ErrConflict)

	sErr, ok := err.(*errors.SuhbaError)
	if !ok || sErr.Details["connection_id"] != first.Connection.ID {
		t.Errorf("conflict details = %v, want connection_id %s", err, first.Connection.ID)
	}
}

func TestRequestConnection_AfterDecline(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	first, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	if _, err := DeclineConnection(ctx, store, RespondInput{ConnectionID: first.Connection.ID, ActorID: "bob"}); err != nil {
		t.Fatalf("DeclineConnection failed: %v", err)
	}

	second, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("expected a new request after decline, got: %v", err)
	}
	if second.Connection.ID == first.Connection.ID {
		t.Error("expected a new edge id")
	}
}

func TestAcceptConnection(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))
	seedProfile(t, store, activeProfile("carol"))

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	id := req.Connection.ID

	// Requester cannot accept their own request
	_, err = AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "alice"})
	assertCode(t, err, errors.ErrForbidden)

	// Outsider cannot act at all
	_, err = AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "carol"})
	assertCode(t, err, errors.ErrForbidden)

	out, err := AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"})
	if err != nil {
		t.Fatalf("AcceptConnection failed: %v", err)
	}
	if out.Connection.Status != social.StatusAccepted {
		t.Errorf("Status = %s, want accepted", out.Connection.Status)
	}

	// Accepting twice is an invalid transition
	_, err = AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"})
	assertCode(t, err, errors.ErrInvalidTransition)

	// Declining an accepted edge is too
	_, err = DeclineConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"})
	assertCode(t, err, errors.ErrInvalidTransition)
}

func TestDeclineConnection_Twice(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	input := RespondInput{ConnectionID: req.Connection.ID, ActorID: "bob"}
	if _, err := DeclineConnection(ctx, store, input); err != nil {
		t.Fatalf("DeclineConnection failed: %v", err)
	}
	_, err = DeclineConnection(ctx, store, input)
	assertCode(t, err, errors.ErrInvalidTransition)
}

func TestBlockConnection(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	id := req.Connection.ID
	if _, err := AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"}); err != nil {
		t.Fatalf("AcceptConnection failed: %v", err)
	}

	// The requester may block too
	out, err := BlockConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "alice"})
	if err != nil {
		t.Fatalf("BlockConnection failed: %v", err)
	}
	if out.Connection.Status != social.StatusBlocked {
		t.Errorf("Status = %s, want blocked", out.Connection.Status)
	}

	// Blocked is terminal and still occupies the pair
	_, err = BlockConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"})
	assertCode(t, err, errors.ErrInvalidTransition)
	_, err = RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "bob", RecipientID: "alice"})
	assertCode(t, err, errors.ErrConflict)
}

func TestRespondConnection_Dispatch(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}

	_, err = RespondConnection(ctx, store, RespondInput{ConnectionID: req.Connection.ID, ActorID: "bob", Action: "ignore"})
	assertCode(t, err, errors.ErrInvalidRequest)

	out, err := RespondConnection(ctx, store, RespondInput{ConnectionID: req.Connection.ID, ActorID: "bob", Action: " Accept "})
	if err != nil {
		t.Fatalf("RespondConnection failed: %v", err)
	}
	if out.Connection.Status != social.StatusAccepted {
		t.Errorf("Status = %s, want accepted", out.Connection.Status)
	}
}

func TestRespond_UnknownConnection(t *testing.T) {
	store, _, _ := newTestStore(t)
	_, err := AcceptConnection(context.Background(), store, RespondInput{ConnectionID: "missing", ActorID: "bob"})
	assertCode(t, err, errors.ErrNotFound)
}

func TestRecordInteraction(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	id := req.Connection.ID

	// Pending edges do not gain strength
	_, err = RecordInteraction(ctx, store, InteractInput{ConnectionID: id, Type: "halaqa_shared"})
	assertCode(t, err, errors.ErrConflict)

	if _, err := AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"}); err != nil {
		t.Fatalf("AcceptConnection failed: %v", err)
	}

	steps := []struct {
		typ  string
		want int
	}{
		{"beneficial_given", 2},
		{"comment_reply", 5},
		{"halaqa_shared", 10},
		{"knowledge_shared", 14},
		{"message_sent", 15},
	}
	for _, s := range steps {
		out, err := RecordInteraction(ctx, store, InteractInput{ConnectionID: id, Type: s.typ})
		if err != nil {
			t.Fatalf("RecordInteraction(%s) failed: %v", s.typ, err)
		}
		if out.Strength != s.want {
			t.Errorf("after %s strength = %d, want %d", s.typ, out.Strength, s.want)
		}
	}

	history, err := ListInteractions(ctx, store, InteractionsInput{ConnectionID: id})
	if err != nil {
		t.Fatalf("ListInteractions failed: %v", err)
	}
	if len(history.Interactions) != len(steps) {
		t.Errorf("got %d interaction records, want %d", len(history.Interactions), len(steps))
	}
	if history.Strength != 15 {
		t.Errorf("history strength = %d, want 15", history.Strength)
	}

	history, err = ListInteractions(ctx, store, InteractionsInput{ConnectionID: id, Limit: 2})
	if err != nil {
		t.Fatalf("ListInteractions failed: %v", err)
	}
	if len(history.Interactions) != 2 {
		t.Errorf("got %d interaction records with limit 2, want 2", len(history.Interactions))
	}

	edge, err := store.Connection(ctx, id)
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}
	if edge.LastInteractionAt == nil {
		t.Error("expected last_interaction_at to be set")
	}

	_, err = RecordInteraction(ctx, store, InteractInput{ConnectionID: id, Type: "hug"})
	assertCode(t, err, errors.ErrInvalidRequest)
}

func TestListInteractions_Errors(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	_, err := ListInteractions(ctx, store, InteractionsInput{ConnectionID: " "})
	assertCode(t, err, errors.ErrInvalidRequest)

	_, err = ListInteractions(ctx, store, InteractionsInput{ConnectionID: "missing"})
	assertCode(t, err, errors.ErrNotFound)

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	_, err = ListInteractions(ctx, store, InteractionsInput{ConnectionID: req.Connection.ID, Limit: -1})
	assertCode(t, err, errors.ErrInvalidRequest)

	out, err := ListInteractions(ctx, store, InteractionsInput{ConnectionID: req.Connection.ID})
	if err != nil {
		t.Fatalf("ListInteractions failed: %v", err)
	}
	if out.Interactions == nil || len(out.Interactions) != 0 {
		t.Errorf("Interactions = %v, want empty non-nil list", out.Interactions)
	}
}

func TestAdjustStrength_Clamps(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	id := req.Connection.ID

	_, err = AdjustStrength(ctx, store, AdjustStrengthInput{ConnectionID: id, Delta: 10})
	assertCode(t, err, errors.ErrConflict)

	if _, err := AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"}); err != nil {
		t.Fatalf("AcceptConnection failed: %v", err)
	}

	tests := []struct {
		delta int
		want  int
	}{
		{40, 40},
		{1000, 100},
		{-30, 70},
		{-1000, 0},
	}
	for _, tc := range tests {
		out, err := AdjustStrength(ctx, store, AdjustStrengthInput{ConnectionID: id, Delta: tc.delta})
		if err != nil {
			t.Fatalf("AdjustStrength(%d) failed: %v", tc.delta, err)
		}
		if out.Strength != tc.want {
			t.Errorf("AdjustStrength(%d) = %d, want %d", tc.delta, out.Strength, tc.want)
		}
	}
}

func TestAdjustStrength_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	seedProfile(t, store, activeProfile("alice"))
	seedProfile(t, store, activeProfile("bob"))

	req, err := RequestConnection(ctx, store, RequestConnectionInput{RequesterID: "alice", RecipientID: "bob"})
	if err != nil {
		t.Fatalf("RequestConnection failed: %v", err)
	}
	id := req.Connection.ID
	if _, err := AcceptConnection(ctx, store, RespondInput{ConnectionID: id, ActorID: "bob"}); err != nil {
		t.Fatalf("AcceptConnection failed: %v", err)
	}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := AdjustStrength(ctx, store, AdjustStrengthInput{ConnectionID: id, Delta: 5}); err != nil {
				t.Errorf("AdjustStrength failed: %v", err)
			}
		}()
	}
	wg.Wait()

	edge, err := store.Connection(ctx, id)
	if err != nil {
		t.Fatalf("Connection failed: %v", err)
	}
	if edge.Strength != 100 {
		t.Errorf("Strength = %d, want 100", edge.Strength)
	}
}
