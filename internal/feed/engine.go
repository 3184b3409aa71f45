// Package feed ranks posts for the For You and trending surfaces.
//
// ScorePost, ScoreTrending, ExpandSecondDegree and Rank are pure.
// Engine loads the social graph and candidate posts through a Source and
// never returns an error: any store failure yields an empty feed.
package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/logging"
	"github.com/hpungsan/suhba/internal/metrics"
	"github.com/hpungsan/suhba/internal/social"
)

// Source is the read-only content and graph access the engine needs.
type Source interface {
	Companions(ctx context.Context, userID string, limit int) ([]social.Companion, error)
	PostsSince(ctx context.Context, since time.Time, limit int) ([]social.Post, error)
	TrendingPosts(ctx context.Context, since time.Time, minBeneficial, limit int) ([]social.Post, error)
	CompanionInteractions(ctx context.Context, postIDs, companionIDs []string) (map[string][]social.PostInteraction, error)
}

// Options tunes the engine. Zero fields fall back to DefaultOptions.
type Options struct {
	DefaultLimit          int
	DecayWindow           time.Duration
	MaxCandidates         int
	SecondDegreeFanout    int
	SecondDegreeEdgesPer  int
	TrendingWindow        time.Duration
	TrendingMinBeneficial int
}

// DefaultOptions returns the standard ranking parameters.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Feed)
}

// OptionsFromConfig converts the feed config section.
func OptionsFromConfig(c config.FeedConfig) Options {
	return Options{
		DefaultLimit:          c.DefaultLimit,
		DecayWindow:           Hours(c.DecayWindowHours),
		MaxCandidates:         c.MaxCandidates,
		SecondDegreeFanout:    c.SecondDegreeFanout,
		SecondDegreeEdgesPer:  c.SecondDegreeEdgesPer,
		TrendingWindow:        Hours(c.TrendingWindowHours),
		TrendingMinBeneficial: c.TrendingMinBeneficial,
	}
}

// MaxWindowHours is the longest decay or trending window, ten years.
const MaxWindowHours = 10 * 365 * 24

// Hours converts a window in hours to a duration, capped at MaxWindowHours
// so the product cannot overflow.
func Hours(n int) time.Duration {
	return time.Duration(min(n, MaxWindowHours)) * time.Hour
}

// ForYouQuery selects a For You feed. IncludeSecondDegree defaults to true;
// a zero DecayWindowHours uses the configured window.
type ForYouQuery struct {
	UserID              string
	Limit               int
	IncludeSecondDegree *bool
	DecayWindowHours    int
}

// Engine ranks feeds for one store.
type Engine struct {
	src  Source
	opts Options
	now  func() time.Time
	log  zerolog.Logger
}

// NewEngine creates an engine over src.
func NewEngine(src Source, opts Options) *Engine {
	d := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = d.DefaultLimit
	}
	if opts.DecayWindow <= 0 {
		opts.DecayWindow = d.DecayWindow
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = d.MaxCandidates
	}
	if opts.SecondDegreeFanout <= 0 {
		opts.SecondDegreeFanout = d.SecondDegreeFanout
	}
	if opts.SecondDegreeEdgesPer <= 0 {
		opts.SecondDegreeEdgesPer = d.SecondDegreeEdgesPer
	}
	if opts.TrendingWindow <= 0 {
		opts.TrendingWindow = d.TrendingWindow
	}
	if opts.TrendingMinBeneficial <= 0 {
		opts.TrendingMinBeneficial = d.TrendingMinBeneficial
	}
	return &Engine{
		src:  src,
		opts: opts,
		now:  time.Now,
		log:  logging.Component("feed"),
	}
}

// WithClock replaces the time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ForYou returns the ranked For You feed.
func (e *Engine) ForYou(ctx context.Context, q ForYouQuery) []ScoredPost {
	const operation = "for_you"

	limit := q.Limit
	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}
	window := e.opts.DecayWindow
	if q.DecayWindowHours > 0 {
		window = Hours(q.DecayWindowHours)
	}
	includeSecond := q.IncludeSecondDegree == nil || *q.IncludeSecondDegree

	log := e.log.With().Str("operation", operation).Str("user_id", q.UserID).Logger()
	now := e.now()

	direct, err := e.src.Companions(ctx, q.UserID, 0)
	if err != nil {
		return e.degraded(log, operation, "load companions", err)
	}

	var second map[string]bool
	if includeSecond && len(direct) > 0 {
		second, err = e.secondDegree(ctx, q.UserID, direct)
		if err != nil {
			return e.degraded(log, operation, "expand second degree", err)
		}
	}

	posts, err := e.src.PostsSince(ctx, now.Add(-window), e.opts.MaxCandidates)
	if err != nil {
		return e.degraded(log, operation, "load posts", err)
	}
	if len(posts) == 0 {
		metrics.ObserveResult(operation, 0, false)
		return []ScoredPost{}
	}

	postIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}
	var interactions map[string][]social.PostInteraction
	if len(direct) > 0 {
		interactions, err = e.src.CompanionInteractions(ctx, postIDs, companionIDs(direct))
		if err != nil {
			return e.degraded(log, operation, "load companion interactions", err)
		}
	}

	g := &Graph{
		UserID:       q.UserID,
		Now:          now,
		Direct:       byID(direct),
		SecondDegree: second,
		Interactions: interactions,
	}
	scored := make([]ScoredPost, 0, len(posts))
	for _, p := range posts {
		scored = append(scored, ScorePost(p, g))
	}

	out := Rank(scored, limit)
	metrics.ObserveResult(operation, len(out), false)
	return out
}

// Trending returns recent heavily-marked posts, boosted for companions.
func (e *Engine) Trending(ctx context.Context, userID string, limit int) []ScoredPost {
	const operation = "trending"

	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}
	log := e.log.With().Str("operation", operation).Str("user_id", userID).Logger()

	direct, err := e.src.Companions(ctx, userID, 0)
	if err != nil {
		return e.degraded(log, operation, "load companions", err)
	}

	since := e.now().Add(-e.opts.TrendingWindow)
	posts, err := e.src.TrendingPosts(ctx, since, e.opts.TrendingMinBeneficial, e.opts.MaxCandidates)
	if err != nil {
		return e.degraded(log, operation, "load trending posts", err)
	}

	directByID := byID(direct)
	scored := make([]ScoredPost, 0, len(posts))
	for _, p := range posts {
		scored = append(scored, ScoreTrending(p, directByID))
	}

	out := Rank(scored, limit)
	metrics.ObserveResult(operation, len(out), false)
	return out
}

// secondDegree loads the bounded neighborhoods of the first direct
// companions and expands them.
func (e *Engine) secondDegree(ctx context.Context, userID string, direct []social.Companion) (map[string]bool, error) {
	fanout := min(e.opts.SecondDegreeFanout, len(direct))
	neighbors := make(map[string][]social.Companion, fanout)
	for _, c := range direct[:fanout] {
		theirs, err := e.src.Companions(ctx, c.ID, e.opts.SecondDegreeEdgesPer)
		if err != nil {
			return nil, err
		}
		neighbors[c.ID] = theirs
	}
	return ExpandSecondDegree(userID, direct, neighbors, e.opts.SecondDegreeFanout, e.opts.SecondDegreeEdgesPer), nil
}

//nolint:gocritic // zerolog.Logger is passed by value
func (e *Engine) degraded(log zerolog.Logger, operation, step string, err error) []ScoredPost {
	log.Error().Err(err).Str("step", step).Msg("feed degraded to empty result")
	metrics.ObserveResult(operation, 0, true)
	return []ScoredPost{}
}

func byID(companions []social.Companion) map[string]social.Companion {
	out := make(map[string]social.Companion, len(companions))
	for _, c := range companions {
		out[c.ID] = c
	}
	return out
}

func companionIDs(companions []social.Companion) []string {
	ids := make([]string, len(companions))
	for i, c := range companions {
		ids[i] = c.ID
	}
	return ids
}
