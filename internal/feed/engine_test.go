package feed

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/suhba/internal/errors"
	"github.com/hpungsan/suhba/internal/social"
)

// fakeSource is an in-memory Source.
type fakeSource struct {
	companions   map[string][]social.Companion
	posts        []social.Post
	interactions map[string][]social.PostInteraction

	failAt         string
	companionCalls []string
	lastSince      time.Time
	lastLimit      int
	lastMinMarks   int
}

func (f *fakeSource) Companions(_ context.Context, userID string, limit int) ([]social.Companion, error) {
	f.companionCalls = append(f.companionCalls, userID)
	if f.failAt == "companions" {
		return nil, errors.NewStoreUnavailable(nil)
	}
	out := f.companions[userID]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSource) PostsSince(_ context.Context, since time.Time, limit int) ([]social.Post, error) {
	f.lastSince, f.lastLimit = since, limit
	if f.failAt == "posts" {
		return nil, errors.NewStoreUnavailable(nil)
	}
	var out []social.Post
	for _, p := range f.posts {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) TrendingPosts(_ context.Context, since time.Time, minBeneficial, limit int) ([]social.Post, error) {
	f.lastSince, f.lastMinMarks, f.lastLimit = since, minBeneficial, limit
	if f.failAt == "trending" {
		return nil, errors.NewStoreUnavailable(nil)
	}
	var out []social.Post
	for _, p := range f.posts {
		if !p.CreatedAt.Before(since) && p.BeneficialCount >= minBeneficial {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSource) CompanionInteractions(_ context.Context, postIDs, companionIDs []string) (map[string][]social.PostInteraction, error) {
	if f.failAt == "interactions" {
		return nil, errors.NewStoreUnavailable(nil)
	}
	out := map[string][]social.PostInteraction{}
	for postID, entries := range f.interactions {
		if !slices.Contains(postIDs, postID) {
			continue
		}
		for _, e := range entries {
			if slices.Contains(companionIDs, e.ActorID) {
				out[postID] = append(out[postID], e)
			}
		}
	}
	return out, nil
}

func newTestSource() *fakeSource {
	return &fakeSource{
		companions: map[string][]social.Companion{
			"me":    {{ID: "amina", DisplayName: "Amina"}, {ID: "bilal", DisplayName: "Bilal"}},
			"amina": {{ID: "me"}, {ID: "yusuf", DisplayName: "Yusuf"}},
			"bilal": {{ID: "me"}, {ID: "amina"}},
		},
		posts: []social.Post{
			{ID: "own", AuthorID: "me", CreatedAt: now, BeneficialCount: 10},
			{ID: "companion", AuthorID: "amina", CreatedAt: now, BeneficialCount: 10},
			{ID: "second", AuthorID: "yusuf", CreatedAt: now, BeneficialCount: 10},
			{ID: "stranger", AuthorID: "zaid", CreatedAt: now, BeneficialCount: 10},
			{ID: "liked", AuthorID: "zaid", CreatedAt: now.Add(-time.Hour), BeneficialCount: 10,
				Content: strings.Repeat("x", 200)},
			{ID: "ancient", AuthorID: "amina", CreatedAt: now.Add(-30 * 24 * time.Hour), BeneficialCount: 100},
		},
		interactions: map[string][]social.PostInteraction{
			"liked": {{PostID: "liked", ActorID: "bilal", ActorName: "Bilal", Action: social.ActionLiked}},
		},
	}
}

func newTestEngine(src Source) *Engine {
	return NewEngine(src, DefaultOptions()).WithClock(func() time.Time { return now })
}

func postIDs(posts []ScoredPost) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestForYou_Ranking(t *testing.T) {
	src := newTestSource()
	got := newTestEngine(src).ForYou(context.Background(), ForYouQuery{UserID: "me"})

	// liked: (20 + 29.79 + 10) + 20 = 79.79 -> 80
	// companion: 50 * 1.5 = 75
	// stranger: 50
	// second: 50 * 0.75 = 37.5 -> 38
	// own: 50 * 0.1 = 5
	want := []string{"liked", "companion", "stranger", "second", "own"}
	if ids := postIDs(got); !slices.Equal(ids, want) {
		t.Fatalf("feed = %v, want %v", ids, want)
	}
	scores := []int{80, 75, 50, 38, 5}
	for i, p := range got {
		if p.Score != scores[i] {
			t.Errorf("%s score = %d, want %d", p.ID, p.Score, scores[i])
		}
	}
	if !src.lastSince.Equal(now.Add(-168 * time.Hour)) {
		t.Errorf("decay window since = %v", src.lastSince)
	}
	if src.lastLimit != 200 {
		t.Errorf("candidate cap = %d, want 200", src.lastLimit)
	}
}

func TestForYou_WithoutSecondDegree(t *testing.T) {
	src := newTestSource()
	off := false
	got := newTestEngine(src).ForYou(context.Background(), ForYouQuery{UserID: "me", IncludeSecondDegree: &off})

	for _, p := range got {
		if p.ID == "second" && p.Score != 50 {
			t.Errorf("second-degree damping applied with expansion off: %d", p.Score)
		}
	}
	if len(src.companionCalls) != 1 {
		t.Errorf("companion lookups = %v, want only the requester", src.companionCalls)
	}
}

func TestForYou_LimitAndWindow(t *testing.T) {
	src := newTestSource()
	got := newTestEngine(src).ForYou(context.Background(), ForYouQuery{UserID: "me", Limit: 2, DecayWindowHours: 24})

	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if !src.lastSince.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("since = %v, want 24h window", src.lastSince)
	}
}

func TestForYou_HugeWindowIsCapped(t *testing.T) {
	src := newTestSource()
	newTestEngine(src).ForYou(context.Background(), ForYouQuery{UserID: "me", DecayWindowHours: 3_000_000})

	if !src.lastSince.Before(now) {
		t.Fatalf("since = %v, want a time before now", src.lastSince)
	}
	if want := now.Add(-MaxWindowHours * time.Hour); !src.lastSince.Equal(want) {
		t.Errorf("since = %v, want %v", src.lastSince, want)
	}
}

func TestForYou_NoCompanions(t *testing.T) {
	src := newTestSource()
	got := newTestEngine(src).ForYou(context.Background(), ForYouQuery{UserID: "loner"})

	if len(got) != 5 {
		t.Errorf("len = %d, want all 5 recent posts", len(got))
	}
	for _, p := range got {
		if p.Attribution != nil {
			t.Errorf("%s has attribution without companions", p.ID)
		}
	}
}

func TestForYou_FailOpen(t *testing.T) {
	for _, step := range []string{"companions", "posts", "interactions"} {
		t.Run(step, func(t *testing.T) {
			src := newTestSource()
			src.failAt = step
			got := newTestEngine(src).ForYou(context.Background(), ForYouQuery{UserID: "me"})
			if got == nil || len(got) != 0 {
				t.Errorf("got %v, want empty non-nil feed", postIDs(got))
			}
		})
	}
}

func TestTrending(t *testing.T) {
	src := newTestSource()
	src.posts = append(src.posts,
		social.Post{ID: "quiet", AuthorID: "zaid", CreatedAt: now, BeneficialCount: 4},
		social.Post{ID: "old-hit", AuthorID: "zaid", CreatedAt: now.Add(-72 * time.Hour), BeneficialCount: 90},
	)

	got := newTestEngine(src).Trending(context.Background(), "me", 10)

	if slices.Contains(postIDs(got), "quiet") || slices.Contains(postIDs(got), "old-hit") {
		t.Errorf("trending = %v, includes filtered posts", postIDs(got))
	}
	if got[0].ID != "companion" || got[0].Score != 150 {
		t.Errorf("top trending = %s (%d), want companion (150)", got[0].ID, got[0].Score)
	}
	if src.lastMinMarks != 5 || !src.lastSince.Equal(now.Add(-48*time.Hour)) {
		t.Errorf("trending query = since %v, min %d", src.lastSince, src.lastMinMarks)
	}
	for _, p := range got {
		for _, r := range p.Reasons {
			if r == ReasonSecondDegreePost {
				t.Error("trending must not apply second-degree boosts")
			}
		}
	}
}

func TestTrending_FailOpen(t *testing.T) {
	src := newTestSource()
	src.failAt = "trending"
	got := newTestEngine(src).Trending(context.Background(), "me", 10)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty", postIDs(got))
	}
}
