package feed

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/hpungsan/suhba/internal/social"
)

// Boost reasons.
const (
	ReasonCompanionPost    = "posted by your companion"
	ReasonSecondDegreePost = "posted by companion's companion"
)

const (
	maxEngagement       = 50.0
	maxRecency          = 30.0
	recencyPerDay       = 5.0
	qualityBonus        = 10.0
	minQualityChars     = 100
	maxQualityChars     = 1000
	companionMultiplier = 1.5
	secondDegreeFactor  = 0.75
	selfAuthoredFactor  = 0.1
	interactionBonus    = 20
	maxInteractionBonus = 40
)

// Attribution names the companion a post is surfaced through.
type Attribution struct {
	CompanionID   string        `json:"companion_id"`
	CompanionName string        `json:"companion_name"`
	Action        social.Action `json:"action"`
}

// ScoredPost is a post with its ranking score. Recomputed per request.
type ScoredPost struct {
	social.Post
	Score       int          `json:"score"`
	Reasons     []string     `json:"reasons"`
	Attribution *Attribution `json:"attribution,omitempty"`
}

// Graph is the social context one feed request is scored against.
type Graph struct {
	UserID string
	Now    time.Time

	// Direct maps companion id to companion.
	Direct map[string]social.Companion

	// SecondDegree holds companions of companions. Disjoint from Direct
	// and never contains UserID.
	SecondDegree map[string]bool

	// Interactions maps post id to direct-companion actions on it.
	Interactions map[string][]social.PostInteraction
}

// ScorePost scores one post for the For You feed. The steps apply in a
// fixed order; the self-authored factor is always last.
func ScorePost(p social.Post, g *Graph) ScoredPost {
	engagement := math.Min(float64(p.BeneficialCount*2+p.CommentCount*3), maxEngagement)

	hours := g.Now.Sub(p.CreatedAt).Hours()
	recency := math.Min(math.Max(0, maxRecency-(hours/24)*recencyPerDay), maxRecency)

	quality := 0.0
	if n := social.CountChars(p.Content); n > minQualityChars && n < maxQualityChars {
		quality += qualityBonus
	}
	if p.Pinned {
		quality += qualityBonus
	}

	score := engagement + recency + quality
	reasons := []string{}
	var attribution *Attribution

	author, authorIsCompanion := g.Direct[p.AuthorID]
	if authorIsCompanion {
		score *= companionMultiplier
		reasons = append(reasons, ReasonCompanionPost)
		attribution = &Attribution{
			CompanionID:   author.ID,
			CompanionName: author.Name(),
			Action:        social.ActionLiked,
		}
	}

	if entries := companionEntries(g, p.ID); len(entries) > 0 {
		score += float64(min(len(entries)*interactionBonus, maxInteractionBonus))
		first := entries[0]
		attribution = &Attribution{
			CompanionID:   first.ActorID,
			CompanionName: first.ActorName,
			Action:        first.Action,
		}
		reasons = append(reasons, interactionReason(first))
	} else if !authorIsCompanion && g.SecondDegree[p.AuthorID] {
		score *= secondDegreeFactor
		reasons = append(reasons, ReasonSecondDegreePost)
	}

	if p.AuthorID == g.UserID {
		score *= selfAuthoredFactor
	}

	return ScoredPost{
		Post:        p,
		Score:       int(math.Round(score)),
		Reasons:     reasons,
		Attribution: attribution,
	}
}

// companionEntries returns the interactions on a post made by direct
// companions, in the order given.
func companionEntries(g *Graph, postID string) []social.PostInteraction {
	var out []social.PostInteraction
	for _, e := range g.Interactions[postID] {
		if _, ok := g.Direct[e.ActorID]; ok {
			out = append(out, e)
		}
	}
	return out
}

func interactionReason(e social.PostInteraction) string {
	if e.Action == social.ActionCommented {
		return fmt.Sprintf("%s commented on this", e.ActorName)
	}
	return fmt.Sprintf("%s %s this", e.ActorName, e.Action)
}

// ScoreTrending scores a post for the trending surface: raw engagement,
// boosted only for direct companions.
func ScoreTrending(p social.Post, direct map[string]social.Companion) ScoredPost {
	score := float64(p.BeneficialCount*10 + p.CommentCount*5)
	reasons := []string{}
	var attribution *Attribution

	if author, ok := direct[p.AuthorID]; ok {
		score *= companionMultiplier
		reasons = append(reasons, ReasonCompanionPost)
		attribution = &Attribution{
			CompanionID:   author.ID,
			CompanionName: author.Name(),
			Action:        social.ActionLiked,
		}
	}

	return ScoredPost{
		Post:        p,
		Score:       int(math.Round(score)),
		Reasons:     reasons,
		Attribution: attribution,
	}
}

// Rank sorts by score, newest first on ties, and keeps the top limit.
func Rank(posts []ScoredPost, limit int) []ScoredPost {
	slices.SortFunc(posts, func(a, b ScoredPost) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts
}
