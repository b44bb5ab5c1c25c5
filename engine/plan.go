package engine

import "sort"

// planLevels returns every RDD reachable from target, grouped by dependency
// depth with ancestors first (Kahn's algorithm over the reachable sub-graph).
// Within a level RDDs are ordered by id so plans are deterministic.
func planLevels(target *RDD) [][]*RDD {
	nodes := map[int]*RDD{}
	frontier := []*RDD{target}
	for len(frontier) > 0 {
		r := frontier[0]
		frontier = frontier[1:]
		if _, seen := nodes[r.id]; seen {
			continue
		}
		nodes[r.id] = r
		frontier = append(frontier, r.deps...)
	}

	inDegree := make(map[int]int, len(nodes))
	dependents := make(map[int][]*RDD, len(nodes))
	for id, r := range nodes {
		// A JOIN of an RDD with itself counts as one edge.
		seen := map[int]bool{}
		for _, d := range r.deps {
			if seen[d.id] {
				continue
			}
			seen[d.id] = true
			inDegree[id]++
			dependents[d.id] = append(dependents[d.id], r)
		}
	}

	var level []*RDD
	for id, r := range nodes {
		if inDegree[id] == 0 {
			level = append(level, r)
		}
	}

	var levels [][]*RDD
	for len(level) > 0 {
		sortByID(level)
		levels = append(levels, level)

		var next []*RDD
		for _, r := range level {
			for _, dep := range dependents[r.id] {
				inDegree[dep.id]--
				if inDegree[dep.id] == 0 {
					next = append(next, dep)
				}
			}
		}
		level = next
	}
	return levels
}

func sortByID(rdds []*RDD) {
	sort.Slice(rdds, func(i, j int) bool { return rdds[i].id < rdds[j].id })
}
