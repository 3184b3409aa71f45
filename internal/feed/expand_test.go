package feed

import (
	"fmt"
	"testing"

	"github.com/hpungsan/suhba/internal/social"
)

func companions(ids ...string) []social.Companion {
	out := make([]social.Companion, len(ids))
	for i, id := range ids {
		out[i] = social.Companion{ID: id}
	}
	return out
}

func TestExpandSecondDegree(t *testing.T) {
	direct := companions("a", "b")
	neighbors := map[string][]social.Companion{
		"a": companions("me", "b", "x", "y"),
		"b": companions("a", "y", "z"),
	}

	got := ExpandSecondDegree("me", direct, neighbors, 10, 20)

	if len(got) != 3 || !got["x"] || !got["y"] || !got["z"] {
		t.Errorf("ExpandSecondDegree = %v, want x, y, z", got)
	}
	if got["me"] || got["a"] || got["b"] {
		t.Error("second degree must exclude the requester and direct companions")
	}
}

func TestExpandSecondDegree_Caps(t *testing.T) {
	var direct []social.Companion
	neighbors := map[string][]social.Companion{}
	for i := range 15 {
		id := fmt.Sprintf("d%02d", i)
		direct = append(direct, social.Companion{ID: id})
		var theirs []social.Companion
		for j := range 30 {
			theirs = append(theirs, social.Companion{ID: fmt.Sprintf("%s-n%02d", id, j)})
		}
		neighbors[id] = theirs
	}

	got := ExpandSecondDegree("me", direct, neighbors, 10, 20)

	if len(got) != 200 {
		t.Errorf("len = %d, want 10 x 20 = 200", len(got))
	}
	if got["d10-n00"] {
		t.Error("companion beyond fanout was expanded")
	}
	if got["d00-n20"] {
		t.Error("edge beyond per-companion cap was included")
	}
}

func TestExpandSecondDegree_NoDirect(t *testing.T) {
	got := ExpandSecondDegree("me", nil, nil, 10, 20)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty set", got)
	}
}
