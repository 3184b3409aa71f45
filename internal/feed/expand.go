package feed

import "github.com/hpungsan/suhba/internal/social"

// ExpandSecondDegree collects companions of the first fanout direct
// companions, taking at most edgesPer of each one's companions. Ids that
// are direct companions or the requester are dropped.
func ExpandSecondDegree(requesterID string, direct []social.Companion, neighbors map[string][]social.Companion, fanout, edgesPer int) map[string]bool {
	out := make(map[string]bool)
	if len(direct) == 0 {
		return out
	}

	directIDs := make(map[string]bool, len(direct))
	for _, c := range direct {
		directIDs[c.ID] = true
	}

	for i, c := range direct {
		if i >= fanout {
			break
		}
		for j, n := range neighbors[c.ID] {
			if j >= edgesPer {
				break
			}
			if n.ID == requesterID || directIDs[n.ID] {
				continue
			}
			out[n.ID] = true
		}
	}
	return out
}
