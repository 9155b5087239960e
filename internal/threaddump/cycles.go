package threaddump

import "strings"

// DFS colors: white = unvisited, gray = on the current path,
// black = fully explored.
type color int

const (
	white color = iota
	gray
	black
)

// DetectCycles enumerates the deadlock cycles of a wait-for graph
// using an iterative white/gray/black DFS. Every back edge into the
// current path yields one cycle; cycles are canonicalized (rotated so
// the smallest thread id leads) and deduplicated, so a 2-thread mutual
// deadlock and a 3-thread circular wait are reported distinctly and
// exactly once. Traversal depth is bounded by the node count, which
// guarantees termination even on pathological input.
//
// A graph with no edges reports no cycles; that is the normal result
// for dumps without a lock section, never an error.
func DetectCycles(g *WaitForGraph) [][]string {
	colors := map[string]color{}
	var path []string
	onPath := map[string]int{} // node -> index in path

	var cycles [][]string
	seen := map[string]bool{}
	maxDepth := len(g.Nodes)

	type frame struct {
		node string
		next int // next edge index to explore
	}

	for _, root := range g.Nodes {
		if colors[root] != white {
			continue
		}
		stack := []frame{{node: root}}
		colors[root] = gray
		onPath[root] = 0
		path = append(path[:0], root)

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			edges := g.Edges[f.node]

			if f.next < len(edges) && len(stack) <= maxDepth {
				target := edges[f.next]
				f.next++
				switch colors[target] {
				case gray:
					// Back edge: the cycle is the path from target onward.
					start := onPath[target]
					cycle := append([]string(nil), path[start:]...)
					key := cycleKey(cycle)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, canonical(cycle))
					}
				case white:
					colors[target] = gray
					onPath[target] = len(path)
					path = append(path, target)
					stack = append(stack, frame{node: target})
				}
				continue
			}

			colors[f.node] = black
			delete(onPath, f.node)
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
		}
	}
	return cycles
}

// canonical rotates a cycle so its smallest thread id comes first,
// preserving edge direction.
func canonical(cycle []string) []string {
	min := 0
	for i, id := range cycle {
		if id < cycle[min] {
			min = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[min:]...)
	out = append(out, cycle[:min]...)
	return out
}

func cycleKey(cycle []string) string {
	return strings.Join(canonical(cycle), "\x00")
}
