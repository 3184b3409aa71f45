package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/db"
	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/feed"
	"github.com/hpungsan/suhba/internal/match"
)

// MatchesInput contains parameters for FindCompanionMatches.
type MatchesInput struct {
	UserID          string // required
	Limit           int    // default: matching.default_limit
	MinScore        *int   // default: matching.default_min_score
	ExcludeExisting *bool  // default: true
}

// StudyPartnersInput contains parameters for FindStudyPartners.
type StudyPartnersInput struct {
	UserID string // required
	Topic  string // required
	Limit  int
}

// MentorsInput contains parameters for FindMentors.
type MentorsInput struct {
	UserID      string // required
	SubjectArea string // optional
	Limit       int
}

// MatchesOutput is returned by every matching operation.
type MatchesOutput struct {
	UserID  string                 `json:"user_id"`
	Matches []match.CompanionMatch `json:"matches"`
}

// FindCompanionMatches returns ranked companion suggestions. Store failures
// produce an empty list, never an error.
func FindCompanionMatches(ctx context.Context, store *db.Store, cfg *config.Config, input MatchesInput) (*MatchesOutput, error) {
	userID, err := requireID("user_id", input.UserID)
	if err != nil {
		return nil, err
	}
	limit, err := clampLimit(input.Limit, MaxMatchLimit)
	if err != nil {
		return nil, err
	}
	if input.MinScore != nil && (*input.MinScore < 0 || *input.MinScore > 100) {
		return nil, errors.NewInvalidRequest("min_score must be between 0 and 100")
	}

	matches := newMatcher(store, cfg).FindCompanionMatches(ctx, match.Query{
		UserID:          userID,
		Limit:           limit,
		MinScore:        input.MinScore,
		ExcludeExisting: input.ExcludeExisting,
	})
	return &MatchesOutput{UserID: userID, Matches: matches}, nil
}

// FindStudyPartners returns matches sharing an interest with topic.
func FindStudyPartners(ctx context.Context, store *db.Store, cfg *config.Config, input StudyPartnersInput) (*MatchesOutput, error) {
	userID, err := requireID("user_id", input.UserID)
	if err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return nil, errors.NewInvalidRequest("topic is required")
	}
	limit, err := clampLimit(input.Limit, MaxMatchLimit)
	if err != nil {
		return nil, err
	}

	matches := newMatcher(store, cfg).FindStudyPartners(ctx, userID, topic, limit)
	return &MatchesOutput{UserID: userID, Matches: matches}, nil
}

// FindMentors returns mentor-eligible matches, optionally by subject area.
func FindMentors(ctx context.Context, store *db.Store, cfg *config.Config, input MentorsInput) (*MatchesOutput, error) {
	userID, err := requireID("user_id", input.UserID)
	if err != nil {
		return nil, err
	}
	limit, err := clampLimit(input.Limit, MaxMatchLimit)
	if err != nil {
		return nil, err
	}

	matches := newMatcher(store, cfg).FindMentors(ctx, userID, strings.TrimSpace(input.SubjectArea), limit)
	return &MatchesOutput{UserID: userID, Matches: matches}, nil
}

// ForYouInput contains parameters for ForYouFeed.
type ForYouInput struct {
	UserID              string // required
	Limit               int    // default: feed.default_limit
	IncludeSecondDegree *bool  // default: true
	DecayWindowHours    int    // default: feed.decay_window_hours
	RenderHTML          bool   // add content_html to each post
}

// TrendingInput contains parameters for TrendingFeed.
type TrendingInput struct {
	UserID     string // required
	Limit      int
	RenderHTML bool
}

// FeedPost is a scored post as returned to callers.
type FeedPost struct {
	feed.ScoredPost
	ContentHTML string `json:"content_html,omitempty"`
}

// FeedOutput is returned by both feed operations.
type FeedOutput struct {
	UserID string     `json:"user_id"`
	Posts  []FeedPost `json:"posts"`
}

// ForYouFeed returns the ranked For You feed. Store failures produce an
// empty feed, never an error.
func ForYouFeed(ctx context.Context, store *db.Store, cfg *config.Config, input ForYouInput) (*FeedOutput, error) {
	userID, err := requireID("user_id", input.UserID)
	if err != nil {
		return nil, err
	}
	limit, err := clampLimit(input.Limit, MaxFeedLimit)
	if err != nil {
		return nil, err
	}
	if input.DecayWindowHours < 0 {
		return nil, errors.NewInvalidRequest("decay_window_hours must not be negative")
	}
	if input.DecayWindowHours > feed.MaxWindowHours {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("decay_window_hours must be at most %d", feed.MaxWindowHours))
	}

	posts := newEngine(store, cfg).ForYou(ctx, feed.ForYouQuery{
		UserID:              userID,
		Limit:               limit,
		IncludeSecondDegree: input.IncludeSecondDegree,
		DecayWindowHours:    input.DecayWindowHours,
	})
	return &FeedOutput{UserID: userID, Posts: toFeedPosts(posts, input.RenderHTML)}, nil
}

// TrendingFeed returns recent heavily-marked posts.
func TrendingFeed(ctx context.Context, store *db.Store, cfg *config.Config, input TrendingInput) (*FeedOutput, error) {
	userID, err := requireID("user_id", input.UserID)
	if err != nil {
		return nil, err
	}
	limit, err := clampLimit(input.Limit, MaxFeedLimit)
	if err != nil {
		return nil, err
	}

	posts := newEngine(store, cfg).Trending(ctx, userID, limit)
	return &FeedOutput{UserID: userID, Posts: toFeedPosts(posts, input.RenderHTML)}, nil
}

func newMatcher(store *db.Store, cfg *config.Config) *match.Matcher {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return match.NewMatcher(store, match.OptionsFromConfig(cfg.Matching))
}

func newEngine(store *db.Store, cfg *config.Config) *feed.Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return feed.NewEngine(store, feed.OptionsFromConfig(cfg.Feed))
}

func toFeedPosts(posts []feed.ScoredPost, render bool) []FeedPost {
	out := make([]FeedPost, len(posts))
	for i, p := range posts {
		out[i] = FeedPost{ScoredPost: p}
		if render {
			out[i].ContentHTML = RenderContent(p.Content)
		}
	}
	return out
}
