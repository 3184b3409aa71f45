// Package match pairs community members into companions.
//
// Score is a pure function over two profiles and their graph signals.
// Matcher loads candidates and signals through a Graph and never returns
// an error: any store failure yields an empty list and a log line.
package match

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/logging"
	"github.com/hpungsan/suhba/internal/metrics"
	"github.com/hpungsan/suhba/internal/social"
)

// Graph is the read-only view of profiles and connections the matcher needs.
type Graph interface {
	Profile(ctx context.Context, id string) (*social.Profile, error)
	PeerIDs(ctx context.Context, userID string, statuses ...social.ConnectionStatus) ([]string, error)
	Candidates(ctx context.Context, q social.CandidateQuery) ([]*social.Profile, error)
	SharedCircles(ctx context.Context, a, b string) ([]string, error)
	RecentBeneficialPostIDs(ctx context.Context, userID string, limit int) ([]string, error)
}

// MentorReason is attached to every mentor match.
const MentorReason = "Available as mentor"

// CompanionMatch is one suggested companion.
type CompanionMatch struct {
	Profile *social.Profile `json:"profile"`
	Compatibility
}

// Options tunes the matcher. Zero window, pool, limit, and sample size
// fall back to DefaultOptions; a zero DefaultMinScore keeps everything.
type Options struct {
	ActiveWindow      time.Duration
	PoolSize          int
	DefaultLimit      int
	DefaultMinScore   int
	ContentSampleSize int
	MentorBonus       int
}

// DefaultOptions returns the standard matching parameters.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Matching)
}

// OptionsFromConfig converts the matching config section.
func OptionsFromConfig(c config.MatchingConfig) Options {
	return Options{
		ActiveWindow:      time.Duration(c.ActiveWindowDays) * 24 * time.Hour,
		PoolSize:          c.CandidatePoolSize,
		DefaultLimit:      c.DefaultLimit,
		DefaultMinScore:   c.DefaultMinScore,
		ContentSampleSize: c.ContentSampleSize,
		MentorBonus:       c.MentorBonus,
	}
}

// Query selects and filters matches. Nil pointer fields take defaults:
// min score from Options, ExcludeExisting true.
type Query struct {
	UserID          string
	Limit           int
	MinScore        *int
	ExcludeExisting *bool
}

// Matcher produces ranked companion suggestions.
type Matcher struct {
	graph Graph
	opts  Options
	now   func() time.Time
	log   zerolog.Logger
}

// NewMatcher creates a matcher over graph.
func NewMatcher(graph Graph, opts Options) *Matcher {
	d := DefaultOptions()
	if opts.ActiveWindow <= 0 {
		opts.ActiveWindow = d.ActiveWindow
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = d.PoolSize
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = d.DefaultLimit
	}
	if opts.ContentSampleSize <= 0 {
		opts.ContentSampleSize = d.ContentSampleSize
	}
	return &Matcher{
		graph: graph,
		opts:  opts,
		now:   time.Now,
		log:   logging.Component("match"),
	}
}

// WithClock replaces the time source. Used by tests.
func (m *Matcher) WithClock(now func() time.Time) *Matcher {
	m.now = now
	return m
}

// FindCompanionMatches returns candidates scoring at least the minimum,
// best first.
func (m *Matcher) FindCompanionMatches(ctx context.Context, q Query) []CompanionMatch {
	return m.find(ctx, "companion_matches", q, variant{})
}

// FindStudyPartners is FindCompanionMatches restricted to candidates with
// an interest containing topic.
func (m *Matcher) FindStudyPartners(ctx context.Context, userID, topic string, limit int) []CompanionMatch {
	return m.find(ctx, "study_partners", Query{UserID: userID, Limit: limit}, variant{topic: topic})
}

// FindMentors returns mentor-eligible candidates with the mentor bonus
// applied. An empty subjectArea matches every mentor.
func (m *Matcher) FindMentors(ctx context.Context, userID, subjectArea string, limit int) []CompanionMatch {
	return m.find(ctx, "mentors", Query{UserID: userID, Limit: limit}, variant{topic: subjectArea, mentor: true})
}

type variant struct {
	topic  string
	mentor bool
}

func (m *Matcher) find(ctx context.Context, operation string, q Query, v variant) []CompanionMatch {
	limit := q.Limit
	if limit <= 0 {
		limit = m.opts.DefaultLimit
	}
	minScore := m.opts.DefaultMinScore
	if q.MinScore != nil {
		minScore = *q.MinScore
	}
	exclude := true
	if q.ExcludeExisting != nil {
		exclude = *q.ExcludeExisting
	}

	log := m.log.With().Str("operation", operation).Str("user_id", q.UserID).Logger()

	requester, err := m.graph.Profile(ctx, q.UserID)
	if err != nil {
		log.Error().Err(err).Msg("load requester failed")
		metrics.ObserveResult(operation, 0, true)
		return []CompanionMatch{}
	}

	candidates, err := m.selectCandidates(ctx, requester, exclude, v.mentor)
	if err != nil {
		log.Error().Err(err).Msg("candidate selection failed")
		metrics.ObserveResult(operation, 0, true)
		return []CompanionMatch{}
	}

	requesterContent, err := m.graph.RecentBeneficialPostIDs(ctx, requester.ID, m.opts.ContentSampleSize)
	if err != nil {
		log.Error().Err(err).Msg("load requester content failed")
		metrics.ObserveResult(operation, 0, true)
		return []CompanionMatch{}
	}

	matches := []CompanionMatch{}
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("scored", len(matches)).Msg("stopped scoring candidates")
			break
		}
		if candidate.ID == requester.ID {
			continue
		}
		if v.topic != "" && !hasInterest(candidate.Interests, v.topic) {
			continue
		}

		compat, err := m.score(ctx, requester, candidate, requesterContent)
		if err != nil {
			log.Warn().Err(err).Str("candidate_id", candidate.ID).Msg("skipping candidate")
			continue
		}
		if v.mentor {
			compat.Score = min(compat.Score+m.opts.MentorBonus, maxScore)
			compat.Reasons = append(compat.Reasons, MentorReason)
		}
		if compat.Score < minScore {
			continue
		}
		matches = append(matches, CompanionMatch{Profile: candidate, Compatibility: compat})
	}

	slices.SortStableFunc(matches, func(a, b CompanionMatch) int {
		return b.Score - a.Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	metrics.ObserveResult(operation, len(matches), false)
	return matches
}

// selectCandidates returns the bounded pool of recently active profiles,
// never including the requester.
func (m *Matcher) selectCandidates(ctx context.Context, requester *social.Profile, exclude, mentorOnly bool) ([]*social.Profile, error) {
	excludeIDs := []string{requester.ID}
	if exclude {
		peers, err := m.graph.PeerIDs(ctx, requester.ID, social.StatusPending, social.StatusAccepted)
		if err != nil {
			return nil, err
		}
		excludeIDs = append(excludeIDs, peers...)
	}

	return m.graph.Candidates(ctx, social.CandidateQuery{
		ExcludeIDs:  excludeIDs,
		ActiveSince: m.now().Add(-m.opts.ActiveWindow),
		MentorOnly:  mentorOnly,
		Limit:       m.opts.PoolSize,
	})
}

func (m *Matcher) score(ctx context.Context, requester, candidate *social.Profile, requesterContent []string) (Compatibility, error) {
	circles, err := m.graph.SharedCircles(ctx, requester.ID, candidate.ID)
	if err != nil {
		return Compatibility{}, err
	}
	content, err := m.graph.RecentBeneficialPostIDs(ctx, candidate.ID, m.opts.ContentSampleSize)
	if err != nil {
		return Compatibility{}, err
	}
	return Score(requester, candidate, Signals{
		SharedCircles:    circles,
		RequesterContent: requesterContent,
		CandidateContent: content,
	}), nil
}
