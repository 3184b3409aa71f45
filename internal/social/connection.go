package social

import "time"

// ConnectionStatus is the lifecycle state of a companion connection.
type ConnectionStatus string

const (
	StatusPending  ConnectionStatus = "pending"
	StatusAccepted ConnectionStatus = "accepted"
	StatusDeclined ConnectionStatus = "declined"
	StatusBlocked  ConnectionStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusBlocked:
		return true
	}
	return false
}

// LiveStatuses lists the statuses that occupy a pair. Declined edges are
// superseded by any later request.
var LiveStatuses = []ConnectionStatus{StatusPending, StatusAccepted, StatusBlocked}

// CanTransition reports whether an edge may move from one status to another.
//
//	pending  -> accepted | declined | blocked
//	accepted -> blocked
func CanTransition(from, to ConnectionStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusAccepted || to == StatusDeclined || to == StatusBlocked
	case StatusAccepted:
		return to == StatusBlocked
	}
	return false
}

// SourceStatuses returns the statuses an edge may be in to move to target.
func SourceStatuses(target ConnectionStatus) []ConnectionStatus {
	var out []ConnectionStatus
	for _, from := range []ConnectionStatus{StatusPending, StatusAccepted, StatusDeclined, StatusBlocked} {
		if CanTransition(from, target) {
			out = append(out, from)
		}
	}
	return out
}

// Strength bounds.
const (
	MinStrength = 0
	MaxStrength = 100
)

// ClampStrength bounds a strength value to [MinStrength, MaxStrength].
func ClampStrength(v int) int {
	return max(MinStrength, min(MaxStrength, v))
}

// ConnectionEdge is a companion connection between two profiles.
type ConnectionEdge struct {
	ID                string           `json:"id"`
	RequesterID       string           `json:"requester_id"`
	RecipientID       string           `json:"recipient_id"`
	Status            ConnectionStatus `json:"status"`
	Strength          int              `json:"strength"`
	Message           string           `json:"message,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	LastInteractionAt *time.Time       `json:"last_interaction_at,omitempty"`
}

// Other returns the id of the party that is not userID.
func (e *ConnectionEdge) Other(userID string) string {
	if e.RequesterID == userID {
		return e.RecipientID
	}
	return e.RequesterID
}

// Involves reports whether userID is either party.
func (e *ConnectionEdge) Involves(userID string) bool {
	return e.RequesterID == userID || e.RecipientID == userID
}

// PairKey orders two profile ids so an unordered pair has one key.
func PairKey(a, b string) (low, high string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// InteractionType classifies an interaction between companions.
type InteractionType string

const (
	InteractionBeneficialGiven InteractionType = "beneficial_given"
	InteractionCommentReply    InteractionType = "comment_reply"
	InteractionHalaqaShared    InteractionType = "halaqa_shared"
	InteractionKnowledgeShared InteractionType = "knowledge_shared"
	InteractionMessageSent     InteractionType = "message_sent"
)

// strengthDeltas maps interaction types to the strength they add.
var strengthDeltas = map[InteractionType]int{
	InteractionBeneficialGiven: 2,
	InteractionCommentReply:    3,
	InteractionHalaqaShared:    5,
	InteractionKnowledgeShared: 4,
	InteractionMessageSent:     1,
}

// StrengthDelta returns the strength increment for an interaction type
// and whether the type is known.
func StrengthDelta(t InteractionType) (int, bool) {
	d, ok := strengthDeltas[t]
	return d, ok
}

// InteractionRecord is an append-only log entry on a connection.
type InteractionRecord struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connection_id"`
	Type         InteractionType `json:"type"`
	CreatedAt    time.Time       `json:"created_at"`
}
