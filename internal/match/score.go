package match

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hpungsan/suhba/internal/social"
)

// Factor caps. They sum to 100.
const (
	maxCircleOverlap     = 25
	maxContentOverlap    = 20
	maxActivityMatch     = 15
	maxInteractionStyle  = 15
	maxGeoProximity      = 10
	maxInterestAlignment = 15
	maxScore             = 100

	neutralActivity = 5
	neutralGeo      = 3
)

// Breakdown holds the six sub-scores of a compatibility score.
type Breakdown struct {
	CircleOverlap     int `json:"circle_overlap"`
	ContentOverlap    int `json:"content_overlap"`
	ActivityMatch     int `json:"activity_match"`
	InteractionStyle  int `json:"interaction_style"`
	GeoProximity      int `json:"geo_proximity"`
	InterestAlignment int `json:"interest_alignment"`
}

// Total sums the sub-scores, capped at 100.
func (b Breakdown) Total() int {
	sum := b.CircleOverlap + b.ContentOverlap + b.ActivityMatch +
		b.InteractionStyle + b.GeoProximity + b.InterestAlignment
	return min(sum, maxScore)
}

// Compatibility is the scored result for one candidate.
type Compatibility struct {
	Score         int       `json:"score"`
	Breakdown     Breakdown `json:"breakdown"`
	Reasons       []string  `json:"reasons"`
	SharedCircles []string  `json:"shared_circles"`
}

// Signals carries the graph facts Score needs beyond the two profiles.
type Signals struct {
	// SharedCircles are the names of circles both profiles belong to.
	SharedCircles []string

	// RequesterContent and CandidateContent are the ids of the content each
	// side most recently marked beneficial.
	RequesterContent []string
	CandidateContent []string
}

// Score computes the compatibility between requester and candidate.
// It is pure: all graph facts arrive through sig.
func Score(requester, candidate *social.Profile, sig Signals) Compatibility {
	shared := sharedInterests(requester.Interests, candidate.Interests)
	b := Breakdown{
		CircleOverlap:     circleOverlap(len(sig.SharedCircles)),
		ContentOverlap:    contentOverlap(sig.RequesterContent, sig.CandidateContent),
		ActivityMatch:     activityMatch(requester.LastActiveAt, candidate.LastActiveAt),
		InteractionStyle:  interactionStyle(requester.BeneficialCount, candidate.BeneficialCount),
		GeoProximity:      geoProximity(requester.Location, candidate.Location),
		InterestAlignment: min(len(shared)*5, maxInterestAlignment),
	}

	reasons := []string{}
	if b.CircleOverlap > 0 {
		reasons = append(reasons, fmt.Sprintf("%d shared circles", len(sig.SharedCircles)))
	}
	if b.ContentOverlap > 10 {
		reasons = append(reasons, "similar content preferences")
	}
	if b.ActivityMatch > 10 {
		reasons = append(reasons, "active at similar times")
	}
	if b.GeoProximity > 5 {
		reasons = append(reasons, "in your area")
	}
	if b.InterestAlignment > 10 {
		reasons = append(reasons, fmt.Sprintf("%d shared interests", len(shared)))
	}

	circles := sig.SharedCircles
	if circles == nil {
		circles = []string{}
	}

	return Compatibility{
		Score:         b.Total(),
		Breakdown:     b,
		Reasons:       reasons,
		SharedCircles: circles,
	}
}

func circleOverlap(shared int) int {
	return min(shared*10, maxCircleOverlap)
}

// contentOverlap is shared / min(|a|, |b|) scaled to 20.
func contentOverlap(a, b []string) int {
	setA := toSet(a)
	setB := toSet(b)
	smaller := min(len(setA), len(setB))
	if smaller == 0 {
		return 0
	}
	shared := 0
	for id := range setA {
		if setB[id] {
			shared++
		}
	}
	ratio := float64(shared) / float64(smaller)
	return min(int(math.Round(ratio*maxContentOverlap)), maxContentOverlap)
}

func activityMatch(a, b *time.Time) int {
	if a == nil || b == nil {
		return neutralActivity
	}
	diff := a.Sub(*b)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < 24*time.Hour:
		return 15
	case diff < 72*time.Hour:
		return 10
	case diff < 168*time.Hour:
		return 5
	default:
		return 0
	}
}

// interactionStyle compares engagement levels; zero counts as one.
func interactionStyle(a, b int) int {
	a, b = max(a, 1), max(b, 1)
	ratio := float64(min(a, b)) / float64(max(a, b))
	return int(math.Round(ratio * maxInteractionStyle))
}

func geoProximity(a, b string) int {
	na, nb := social.Normalize(a), social.Normalize(b)
	if na == "" || nb == "" {
		return neutralGeo
	}
	if na == nb {
		return maxGeoProximity
	}
	for _, ta := range locationTokens(na) {
		for _, tb := range locationTokens(nb) {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				return 7
			}
		}
	}
	return 0
}

// locationTokens splits a normalized location on commas.
func locationTokens(loc string) []string {
	var out []string
	for _, part := range strings.Split(loc, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// sharedInterests returns the normalized interests present in both lists.
func sharedInterests(a, b []string) []string {
	other := toSet(social.NormalizeSet(b))
	var shared []string
	for _, interest := range social.NormalizeSet(a) {
		if other[interest] {
			shared = append(shared, interest)
		}
	}
	return shared
}

// hasInterest reports whether any interest contains topic, ignoring case.
func hasInterest(interests []string, topic string) bool {
	topic = social.Normalize(topic)
	if topic == "" {
		return true
	}
	for _, interest := range interests {
		if strings.Contains(social.Normalize(interest), topic) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
