// Package cluster groups maximized tab groups that share a workspace into
// peer sets. The result drives the counter shown on each bar and decides
// which groups mirror superpinned tabs.
package cluster

import "github.com/1broseidon/tabtile/internal/group"

// Candidate is one group's input to CounterGroupIDs.
type Candidate struct {
	GroupID     group.ID
	WorkspaceID group.WorkspaceID
	Maximized   bool
}

// MinPeers is the smallest cluster that gets a counter.
const MinPeers = 2

// CounterGroupIDs maps every candidate's group id to its ordered peer list,
// itself included. Groups that are not maximized, have no resolved
// workspace, or are alone on their workspace map to an empty list.
//
// Within a cluster, ids listed in preferred[workspace] come first in that
// order; the remaining members follow in candidate order.
func CounterGroupIDs(candidates []Candidate, preferred map[group.WorkspaceID][]group.ID) map[group.ID][]group.ID {
	out := make(map[group.ID][]group.ID, len(candidates))
	members := make(map[group.WorkspaceID][]group.ID)
	var order []group.WorkspaceID

	for _, c := range candidates {
		out[c.GroupID] = []group.ID{}
		if !c.Maximized || c.WorkspaceID == 0 {
			continue
		}
		if _, ok := members[c.WorkspaceID]; !ok {
			order = append(order, c.WorkspaceID)
		}
		members[c.WorkspaceID] = append(members[c.WorkspaceID], c.GroupID)
	}

	for _, ws := range order {
		ids := members[ws]
		if len(ids) < MinPeers {
			continue
		}
		ordered := applyPreferred(ids, preferred[ws])
		for _, id := range ids {
			out[id] = append([]group.ID(nil), ordered...)
		}
	}
	return out
}

func applyPreferred(ids []group.ID, preferred []group.ID) []group.ID {
	if len(preferred) == 0 {
		return ids
	}
	member := make(map[group.ID]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	out := make([]group.ID, 0, len(ids))
	used := make(map[group.ID]bool, len(ids))
	for _, id := range preferred {
		if member[id] && !used[id] {
			out = append(out, id)
			used[id] = true
		}
	}
	for _, id := range ids {
		if !used[id] {
			out = append(out, id)
		}
	}
	return out
}

// Peers returns the members of a counter other than id.
func Peers(counter []group.ID, id group.ID) []group.ID {
	var out []group.ID
	for _, peer := range counter {
		if peer != id {
			out = append(out, peer)
		}
	}
	return out
}
