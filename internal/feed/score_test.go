package feed

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/suhba/internal/social"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testGraph() *Graph {
	return &Graph{
		UserID: "me",
		Now:    now,
		Direct: map[string]social.Companion{
			"amina": {ID: "amina", Username: "amina", DisplayName: "Amina"},
			"bilal": {ID: "bilal", Username: "bilal", DisplayName: "Bilal"},
		},
		SecondDegree: map[string]bool{"yusuf": true},
		Interactions: map[string][]social.PostInteraction{},
	}
}

func TestScorePost_WorkedExample(t *testing.T) {
	g := testGraph()
	p := social.Post{
		ID:              "p1",
		AuthorID:        "amina",
		Content:         strings.Repeat("a", 150),
		CreatedAt:       now.Add(-time.Hour),
		BeneficialCount: 10,
		CommentCount:    2,
	}
	g.Interactions["p1"] = []social.PostInteraction{
		{PostID: "p1", ActorID: "bilal", ActorName: "Bilal", Action: social.ActionCommented},
	}

	got := ScorePost(p, g)

	// 26 + 29.79 + 10 = 65.79, x1.5 = 98.69, +20 = 118.69
	if got.Score != 119 {
		t.Errorf("Score = %d, want 119", got.Score)
	}
	wantReasons := []string{ReasonCompanionPost, "Bilal commented on this"}
	if !slices.Equal(got.Reasons, wantReasons) {
		t.Errorf("Reasons = %v, want %v", got.Reasons, wantReasons)
	}
	if got.Attribution == nil || got.Attribution.CompanionID != "bilal" || got.Attribution.Action != social.ActionCommented {
		t.Errorf("Attribution = %+v, want bilal commented", got.Attribution)
	}
}

func TestScorePost_CompanionPlaceholderAttribution(t *testing.T) {
	g := testGraph()
	p := social.Post{ID: "p1", AuthorID: "amina", CreatedAt: now}

	got := ScorePost(p, g)

	// recency 30, x1.5
	if got.Score != 45 {
		t.Errorf("Score = %d, want 45", got.Score)
	}
	if got.Attribution == nil || got.Attribution.CompanionName != "Amina" || got.Attribution.Action != social.ActionLiked {
		t.Errorf("Attribution = %+v, want Amina liked", got.Attribution)
	}
}

func TestScorePost_InteractionBonusCapped(t *testing.T) {
	g := testGraph()
	p := social.Post{ID: "p1", AuthorID: "stranger", CreatedAt: now}
	g.Interactions["p1"] = []social.PostInteraction{
		{ActorID: "amina", ActorName: "Amina", Action: social.ActionLiked},
		{ActorID: "bilal", ActorName: "Bilal", Action: social.ActionLiked},
		{ActorID: "bilal", ActorName: "Bilal", Action: social.ActionCommented},
	}

	got := ScorePost(p, g)

	if got.Score != 30+40 {
		t.Errorf("Score = %d, want 70", got.Score)
	}
	if got.Attribution.CompanionID != "amina" {
		t.Errorf("attribution should name the first interacting companion, got %+v", got.Attribution)
	}
	if !slices.Equal(got.Reasons, []string{"Amina liked this"}) {
		t.Errorf("Reasons = %v", got.Reasons)
	}
}

func TestScorePost_IgnoresNonCompanionInteractions(t *testing.T) {
	g := testGraph()
	p := social.Post{ID: "p1", AuthorID: "stranger", CreatedAt: now}
	g.Interactions["p1"] = []social.PostInteraction{
		{ActorID: "someone", ActorName: "Someone", Action: social.ActionLiked},
	}

	got := ScorePost(p, g)
	if got.Score != 30 || got.Attribution != nil {
		t.Errorf("got %+v, want plain score 30", got)
	}
}

func TestScorePost_SecondDegree(t *testing.T) {
	g := testGraph()
	p := social.Post{ID: "p1", AuthorID: "yusuf", CreatedAt: now, BeneficialCount: 5}

	got := ScorePost(p, g)

	// (10 + 30) * 0.75
	if got.Score != 30 {
		t.Errorf("Score = %d, want 30", got.Score)
	}
	if !slices.Equal(got.Reasons, []string{ReasonSecondDegreePost}) {
		t.Errorf("Reasons = %v", got.Reasons)
	}
}

func TestScorePost_SecondDegreeSkippedWhenCompanionInteracted(t *testing.T) {
	g := testGraph()
	p := social.Post{ID: "p1", AuthorID: "yusuf", CreatedAt: now}
	g.Interactions["p1"] = []social.PostInteraction{
		{ActorID: "amina", ActorName: "Amina", Action: social.ActionLiked},
	}

	got := ScorePost(p, g)
	if got.Score != 50 {
		t.Errorf("Score = %d, want 50 (no 0.75 damping)", got.Score)
	}
}

func TestScorePost_SelfAuthoredDamped(t *testing.T) {
	g := testGraph()
	mine := social.Post{ID: "p1", AuthorID: "me", CreatedAt: now, BeneficialCount: 10}
	theirs := social.Post{ID: "p2", AuthorID: "stranger", CreatedAt: now, BeneficialCount: 10}

	self := ScorePost(mine, g)
	other := ScorePost(theirs, g)

	// base 20 + 30 = 50
	if other.Score != 50 || self.Score != 5 {
		t.Errorf("self = %d, other = %d; want 5 and 50", self.Score, other.Score)
	}
}

func TestScorePost_Components(t *testing.T) {
	tests := []struct {
		name string
		post social.Post
		want int
	}{
		{"engagement capped", social.Post{BeneficialCount: 100, CreatedAt: now.Add(-30 * 24 * time.Hour)}, 50},
		{"recency loses five per day", social.Post{CreatedAt: now.Add(-48 * time.Hour)}, 20},
		{"recency floored", social.Post{CreatedAt: now.Add(-10 * 24 * time.Hour)}, 0},
		{"future post capped", social.Post{CreatedAt: now.Add(24 * time.Hour)}, 30},
		{"length 100 gets no bonus", social.Post{Content: strings.Repeat("x", 100), CreatedAt: now.Add(-8 * 24 * time.Hour)}, 0},
		{"length 101 gets bonus", social.Post{Content: strings.Repeat("x", 101), CreatedAt: now.Add(-8 * 24 * time.Hour)}, 10},
		{"length 1000 gets no bonus", social.Post{Content: strings.Repeat("x", 1000), CreatedAt: now.Add(-8 * 24 * time.Hour)}, 0},
		{"multibyte counted as characters", social.Post{Content: strings.Repeat("ب", 150), CreatedAt: now.Add(-8 * 24 * time.Hour)}, 10},
		{"pinned", social.Post{Pinned: true, CreatedAt: now.Add(-8 * 24 * time.Hour)}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.post.AuthorID = "stranger"
			if got := ScorePost(tt.post, testGraph()); got.Score != tt.want {
				t.Errorf("Score = %d, want %d", got.Score, tt.want)
			}
		})
	}
}

func TestScoreTrending(t *testing.T) {
	direct := testGraph().Direct

	plain := ScoreTrending(social.Post{AuthorID: "stranger", BeneficialCount: 6, CommentCount: 2}, direct)
	if plain.Score != 70 {
		t.Errorf("plain trending = %d, want 70", plain.Score)
	}

	boosted := ScoreTrending(social.Post{AuthorID: "bilal", BeneficialCount: 6, CommentCount: 2}, direct)
	if boosted.Score != 105 {
		t.Errorf("companion trending = %d, want 105", boosted.Score)
	}
	if !slices.Equal(boosted.Reasons, []string{ReasonCompanionPost}) {
		t.Errorf("Reasons = %v", boosted.Reasons)
	}
}

func TestRank(t *testing.T) {
	posts := []ScoredPost{
		{Post: social.Post{ID: "a", CreatedAt: now.Add(-time.Hour)}, Score: 10},
		{Post: social.Post{ID: "b", CreatedAt: now}, Score: 30},
		{Post: social.Post{ID: "c", CreatedAt: now}, Score: 10},
		{Post: social.Post{ID: "d", CreatedAt: now.Add(-2 * time.Hour)}, Score: 20},
	}

	got := Rank(posts, 3)

	ids := make([]string, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	if !slices.Equal(ids, []string{"b", "d", "c"}) {
		t.Errorf("Rank = %v, want [b d c]", ids)
	}
}
