package social

import "time"

// Post is a piece of feed content. Ranking never mutates posts.
type Post struct {
	ID              string    `json:"id"`
	AuthorID        string    `json:"author_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	BeneficialCount int       `json:"beneficial_count"`
	CommentCount    int       `json:"comment_count"`
	Pinned          bool      `json:"pinned"`
	CircleID        string    `json:"circle_id,omitempty"`
}

// Action is what a companion did on a post.
type Action string

const (
	ActionLiked     Action = "liked"
	ActionCommented Action = "commented"
)

// PostInteraction is one companion action on a post.
type PostInteraction struct {
	PostID    string    `json:"post_id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    Action    `json:"action"`
	At        time.Time `json:"at"`
}
