package threaddump

import "sort"

// WaitForGraph is a directed graph over thread ids: an edge A→B means
// A is waiting on a lock held by B. Built once per snapshot and
// read-only afterwards.
type WaitForGraph struct {
	// Nodes holds the ids of threads with any lock activity, sorted.
	// Threads with no held or waited-on locks contribute no edges and
	// are left out (they still show up in the by-state summary).
	Nodes []string `json:"nodes"`
	// Edges maps a thread id to the sorted ids it waits on.
	Edges map[string][]string `json:"edges"`
}

// BuildGraph derives the wait-for graph from a snapshot. Ownership
// comes from the explicit lock table when present; otherwise held and
// waited-on lock identities are matched directly as strings.
func BuildGraph(snap *Snapshot) *WaitForGraph {
	owners := map[string][]string{} // lock identity -> holder thread ids
	for _, l := range snap.Locks {
		if l.OwnerThread != "" {
			owners[l.Identity] = append(owners[l.Identity], l.OwnerThread)
		}
	}
	for _, t := range snap.Threads {
		for _, lock := range t.LocksHeld {
			owners[lock] = append(owners[lock], t.ID)
		}
	}

	g := &WaitForGraph{Edges: map[string][]string{}}
	nodeSet := map[string]bool{}
	for _, t := range snap.Threads {
		if len(t.LocksHeld) == 0 && len(t.LocksWaiting) == 0 {
			continue
		}
		nodeSet[t.ID] = true

		targets := map[string]bool{}
		for _, lock := range t.LocksWaiting {
			for _, owner := range owners[lock] {
				if owner != t.ID {
					targets[owner] = true
				}
			}
		}
		if len(targets) == 0 {
			continue
		}
		edges := make([]string, 0, len(targets))
		for id := range targets {
			edges = append(edges, id)
		}
		sort.Strings(edges)
		g.Edges[t.ID] = edges
	}

	g.Nodes = make([]string, 0, len(nodeSet))
	for id := range nodeSet {
		g.Nodes = append(g.Nodes, id)
	}
	sort.Strings(g.Nodes)
	return g
}

// ContentionHubs ranks locks by waiting-thread count descending, lock
// identity ascending on ties. Waiters are the union of the threads'
// locks_waiting declarations and the lock table's waiting_threads.
func ContentionHubs(snap *Snapshot) []Hub {
	waiters := map[string]map[string]bool{}
	add := func(lock, thread string) {
		if lock == "" || thread == "" {
			return
		}
		if waiters[lock] == nil {
			waiters[lock] = map[string]bool{}
		}
		waiters[lock][thread] = true
	}

	for _, t := range snap.Threads {
		for _, lock := range t.LocksWaiting {
			add(lock, t.ID)
		}
	}
	for _, l := range snap.Locks {
		for _, t := range l.WaitingThreads {
			add(l.Identity, t)
		}
	}

	hubs := make([]Hub, 0, len(waiters))
	for lock, set := range waiters {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		hubs = append(hubs, Hub{Lock: lock, Waiters: ids})
	}
	sort.Slice(hubs, func(i, j int) bool {
		if len(hubs[i].Waiters) != len(hubs[j].Waiters) {
			return len(hubs[i].Waiters) > len(hubs[j].Waiters)
		}
		return hubs[i].Lock < hubs[j].Lock
	})
	return hubs
}

// StateCounts summarizes every thread by state, including threads that
// were excluded from the graph.
func StateCounts(snap *Snapshot) map[State]int {
	counts := map[State]int{}
	for _, t := range snap.Threads {
		counts[t.State]++
	}
	return counts
}
