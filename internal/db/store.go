package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/logging"
	"github.com/hpungsan/suhba/internal/metrics"
	"github.com/hpungsan/suhba/internal/social"
)

const breakerName = "store"

// Store runs queries against the database with a per-call timeout and a
// circuit breaker. A timed-out call or an open breaker yields a
// STORE_UNAVAILABLE error.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[any]
}

// NewStore wraps database using the timeout and breaker settings in cfg.
func NewStore(database *sql.DB, cfg *config.Config) *Store {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	maxFailures := uint32(max(cfg.BreakerMaxFailures, 1))

	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.BreakerOpenSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isStoreFailure(err)
		},
	})

	return &Store{
		db:      database,
		timeout: cfg.StoreTimeout(),
		cb:      cb,
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	_, err := run(ctx, s, "ping", func(ctx context.Context) (struct{}, error) {
		if err := s.db.PingContext(ctx); err != nil {
			return struct{}{}, errors.NewInternal(err)
		}
		return struct{}{}, nil
	})
	return err
}

// Profile implements the graph accessor.
func (s *Store) Profile(ctx context.Context, id string) (*social.Profile, error) {
	return run(ctx, s, "profile", func(ctx context.Context) (*social.Profile, error) {
		return GetProfile(ctx, s.db, id)
	})
}

// PeerIDs implements the graph accessor.
func (s *Store) PeerIDs(ctx context.Context, userID string, statuses ...social.ConnectionStatus) ([]string, error) {
	return run(ctx, s, "peer_ids", func(ctx context.Context) ([]string, error) {
		return PeerIDs(ctx, s.db, userID, statuses...)
	})
}

// Candidates implements the graph accessor.
func (s *Store) Candidates(ctx context.Context, q social.CandidateQuery) ([]*social.Profile, error) {
	return run(ctx, s, "candidates", func(ctx context.Context) ([]*social.Profile, error) {
		return ListCandidates(ctx, s.db, q)
	})
}

// SharedCircles implements the graph accessor.
func (s *Store) SharedCircles(ctx context.Context, a, b string) ([]string, error) {
	return run(ctx, s, "shared_circles", func(ctx context.Context) ([]string, error) {
		return SharedCircles(ctx, s.db, a, b)
	})
}

// RecentBeneficialPostIDs implements the graph accessor.
func (s *Store) RecentBeneficialPostIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	return run(ctx, s, "recent_beneficial", func(ctx context.Context) ([]string, error) {
		return RecentBeneficialPostIDs(ctx, s.db, userID, limit)
	})
}

// Companions implements the content accessor.
func (s *Store) Companions(ctx context.Context, userID string, limit int) ([]social.Companion, error) {
	return run(ctx, s, "companions", func(ctx context.Context) ([]social.Companion, error) {
		return ListCompanions(ctx, s.db, userID, limit)
	})
}

// PostsSince implements the content accessor.
func (s *Store) PostsSince(ctx context.Context, since time.Time, limit int) ([]social.Post, error) {
	return run(ctx, s, "posts_since", func(ctx context.Context) ([]social.Post, error) {
		return PostsSince(ctx, s.db, since, limit)
	})
}

// TrendingPosts implements the content accessor.
func (s *Store) TrendingPosts(ctx context.Context, since time.Time, minBeneficial, limit int) ([]social.Post, error) {
	return run(ctx, s, "trending_posts", func(ctx context.Context) ([]social.Post, error) {
		return TrendingPosts(ctx, s.db, since, minBeneficial, limit)
	})
}

// CompanionInteractions implements the content accessor.
func (s *Store) CompanionInteractions(ctx context.Context, postIDs, companionIDs []string) (map[string][]social.PostInteraction, error) {
	return run(ctx, s, "companion_interactions", func(ctx context.Context) (map[string][]social.PostInteraction, error) {
		return CompanionInteractions(ctx, s.db, postIDs, companionIDs)
	})
}

// Connection returns an edge by id.
func (s *Store) Connection(ctx context.Context, id string) (*social.ConnectionEdge, error) {
	return run(ctx, s, "connection", func(ctx context.Context) (*social.ConnectionEdge, error) {
		return GetConnection(ctx, s.db, id)
	})
}

// LiveConnection returns the pending, accepted, or blocked edge for a pair.
func (s *Store) LiveConnection(ctx context.Context, a, b string) (*social.ConnectionEdge, error) {
	return run(ctx, s, "live_connection", func(ctx context.Context) (*social.ConnectionEdge, error) {
		return FindLiveConnection(ctx, s.db, a, b)
	})
}

// CreateConnection inserts a new edge.
func (s *Store) CreateConnection(ctx context.Context, e *social.ConnectionEdge) error {
	_, err := run(ctx, s, "create_connection", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, InsertConnection(ctx, s.db, e)
	})
	return err
}

// Transition applies a conditional status change.
func (s *Store) Transition(ctx context.Context, id string, to social.ConnectionStatus, from []social.ConnectionStatus, at time.Time) (bool, error) {
	return run(ctx, s, "transition", func(ctx context.Context) (bool, error) {
		return TransitionConnection(ctx, s.db, id, to, from, at)
	})
}

// AdjustStrength applies an atomic clamped strength delta.
func (s *Store) AdjustStrength(ctx context.Context, id string, delta int, at time.Time) (int, error) {
	strength, err := run(ctx, s, "adjust_strength", func(ctx context.Context) (int, error) {
		return IncrementStrength(ctx, s.db, id, delta, at)
	})
	observeStrengthUpdate(err)
	return strength, err
}

// RecordInteraction appends an interaction and bumps strength.
func (s *Store) RecordInteraction(ctx context.Context, rec *social.InteractionRecord, delta int) (int, error) {
	strength, err := run(ctx, s, "record_interaction", func(ctx context.Context) (int, error) {
		return RecordInteraction(ctx, s.db, rec, delta)
	})
	observeStrengthUpdate(err)
	return strength, err
}

// Interactions returns a connection's interaction log.
func (s *Store) Interactions(ctx context.Context, connectionID string, limit int) ([]social.InteractionRecord, error) {
	return run(ctx, s, "interactions", func(ctx context.Context) ([]social.InteractionRecord, error) {
		return ListInteractions(ctx, s.db, connectionID, limit)
	})
}

// run executes fn with the store timeout through the circuit breaker and
// records its duration.
func run[T any](ctx context.Context, s *Store, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	// A caller that gave up says nothing about the store's health.
	if stderrors.Is(ctx.Err(), context.Canceled) {
		return zero, fmt.Errorf("store %s: %w", name, ctx.Err())
	}

	callerCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.cb.Execute(func() (any, error) {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		switch {
		case stderrors.Is(callerCtx.Err(), context.Canceled):
			err = fmt.Errorf("store %s: %w", name, context.Canceled)
		case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
			err = errors.NewStoreUnavailable(fmt.Errorf("%s: %w", name, ctx.Err()))
		}
		return v, err
	})
	metrics.StoreQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			err = errors.NewStoreUnavailable(err)
		}
		if isStoreFailure(err) {
			metrics.StoreQueryErrors.WithLabelValues(name).Inc()
		}
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		return zero, errors.NewInternal(fmt.Errorf("store %s: unexpected result type %T", name, result))
	}
	return typed, nil
}

// isStoreFailure reports whether err means the store misbehaved, as opposed
// to a domain outcome such as NOT_FOUND or CONFLICT or a cancelled caller.
func isStoreFailure(err error) bool {
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, errors.ErrInternal) || errors.Is(err, errors.ErrStoreUnavailable)
}

func observeStrengthUpdate(err error) {
	if err != nil {
		metrics.StrengthUpdates.WithLabelValues("skipped").Inc()
		return
	}
	metrics.StrengthUpdates.WithLabelValues("applied").Inc()
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
