package engine

import "container/heap"

// Passable reports whether a unit may enter/pass through a tile. Implemented
// by GameContext so the pathfinder stays decoupled from unit/party lookup.
type Passable interface {
	// MoveCost returns the cost to enter coord for the given movement group,
	// and ok=false if the tile cannot be entered at all (occupied by an
	// unrelated unit, out of bounds, or ImpassableCost terrain).
	MoveCost(coord Coord, movementGroup NID, mover UnitId) (cost int, ok bool)
}

// pqEntry is one open-set entry in the Dijkstra/A* priority queue. g is the
// accumulated movement cost in whole terrain-cost units; h is the A*
// heuristic estimate (zero for plain Dijkstra). h is float64 because
// spec.md §4.2 defines it as Manhattan distance plus a *tiny* (×1e-3)
// cross-product tie-break term — it must stay small enough to never
// outweigh a real difference in g, which an integer fixed-point scale of h
// alone (without scaling g to match) cannot guarantee. Ties break on H then
// on InsertionOrder so results are deterministic regardless of map
// iteration order (spec.md §8 determinism invariant), grounded on
// lib/rules_engine.go's dijkstraItem/dijkstraHeap container/heap pattern.
type pqEntry struct {
	coord          Coord
	g              int
	h              float64
	insertionOrder int
	index          int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	fi, fj := float64(pq[i].g)+pq[i].h, float64(pq[j].g)+pq[j].h
	if fi != fj {
		return fi < fj
	}
	if pq[i].h != pq[j].h {
		return pq[i].h < pq[j].h
	}
	return pq[i].insertionOrder < pq[j].insertionOrder
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	e := x.(*pqEntry)
	e.index = len(*pq)
	*pq = append(*pq, e)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*pq = old[:n-1]
	return e
}

// ReachableTile is one entry in a movement-range flood-fill result: the
// cheapest cost to reach coord, and the predecessor coord on that cheapest
// path (Coord{-1,-1} for the origin).
type ReachableTile struct {
	Cost int
	From Coord
}

var noPredecessor = Coord{X: -1, Y: -1}

// ReachableTiles runs a Dijkstra flood-fill from origin up to budget moves,
// respecting board bounds and the passable predicate, and returns every
// reached tile with its cheapest cost and predecessor. Grounded on
// lib/rules_engine.go's GetMovementOptions (heap-based Dijkstra over the hex
// grid), adapted to the square board's 4-direction Neighbors.
func ReachableTiles(b *Board, origin Coord, budget int, movementGroup NID, mover UnitId, pass Passable) map[Coord]ReachableTile {
	result := map[Coord]ReachableTile{origin: {Cost: 0, From: noPredecessor}}
	pq := &priorityQueue{}
	heap.Init(pq)
	order := 0
	heap.Push(pq, &pqEntry{coord: origin, g: 0, h: 0, insertionOrder: order})

	var neighbors [4]Coord
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqEntry)
		best, ok := result[cur.coord]
		if ok && cur.g > best.Cost {
			continue
		}
		cur.coord.Neighbors(&neighbors)
		for _, n := range neighbors {
			if !b.InBounds(n) {
				continue
			}
			cost, ok := pass.MoveCost(n, movementGroup, mover)
			if !ok {
				continue
			}
			g := cur.g + cost
			if g > budget {
				continue
			}
			if existing, seen := result[n]; seen && existing.Cost <= g {
				continue
			}
			result[n] = ReachableTile{Cost: g, From: cur.coord}
			order++
			heap.Push(pq, &pqEntry{coord: n, g: g, h: 0, insertionOrder: order})
		}
	}
	return result
}

// aStarHeuristic is Manhattan distance plus a *tiny* (×1e-3) cross-product
// tie-break term that biases the search toward the straight line from start
// to goal, preventing the zig-zag paths a pure Manhattan heuristic can
// produce on an open grid (spec.md §4.2: "Manhattan distance plus a tiny
// cross-product term (|Δ_goal × Δ_start| × 1e-3)"). Kept as a float64 here —
// and combined with the integer g in float64 arithmetic by the caller — so
// the ×1e-3 scale is literal rather than an integer fixed-point factor that
// would need g scaled by the same amount to avoid swamping real cost
// differences. Grounded on lib/rules_engine.go's FindPathTo heuristic shape.
func aStarHeuristic(from, goal, start Coord) float64 {
	d := ManhattanDistance(from, goal)
	dxStart, dyStart := goal.X-start.X, goal.Y-start.Y
	dxHere, dyHere := from.X-goal.X, from.Y-goal.Y
	cross := dxStart*dyHere - dxHere*dyStart
	if cross < 0 {
		cross = -cross
	}
	return float64(d) + float64(cross)*1e-3
}

// isAdjacent reports whether a and b are orthogonal neighbors (Manhattan
// distance exactly 1).
func isAdjacent(a, b Coord) bool {
	return ManhattanDistance(a, b) == 1
}

// FindPath runs A* from start to goal and returns the ordered path
// including both endpoints, or nil if no path exists within maxCost.
// When adjGoodEnough is true (spec.md §4.2's adj_good_enough parameter,
// used e.g. to path a unit toward melee range of an occupied target tile),
// the search accepts the first tile adjacent to goal it pops instead of
// requiring goal itself — still provably minimum-cost, since A* with a
// consistent heuristic pops nodes in non-decreasing f order. The goal
// tile's own passability is not checked when the path does reach it —
// callers validate the destination separately — grounded on
// lib/rules_engine.go's FindPathTo.
func FindPath(b *Board, start, goal Coord, maxCost int, movementGroup NID, mover UnitId, adjGoodEnough bool, pass Passable) []Coord {
	if start == goal {
		return []Coord{start}
	}
	if adjGoodEnough && isAdjacent(start, goal) {
		return []Coord{start}
	}
	type node struct {
		g              int
		h              float64
		insertionOrder int
		from           Coord
		hasFrom        bool
	}
	visited := map[Coord]node{start: {g: 0, h: aStarHeuristic(start, goal, start)}}
	pq := &priorityQueue{}
	heap.Init(pq)
	order := 0
	heap.Push(pq, &pqEntry{coord: start, g: 0, h: visited[start].h, insertionOrder: order})

	var target Coord
	found := false

	var neighbors [4]Coord
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqEntry)
		if cur.coord == goal || (adjGoodEnough && isAdjacent(cur.coord, goal)) {
			target = cur.coord
			found = true
			break
		}
		curNode := visited[cur.coord]
		if cur.g > curNode.g {
			continue
		}
		cur.coord.Neighbors(&neighbors)
		for _, n := range neighbors {
			if !b.InBounds(n) {
				continue
			}
			if n != goal {
				if cost, ok := pass.MoveCost(n, movementGroup, mover); !ok {
					continue
				} else if cur.g+cost > maxCost {
					continue
				}
			}
			cost := 1
			if n != goal {
				if c, ok := pass.MoveCost(n, movementGroup, mover); ok {
					cost = c
				}
			}
			g := cur.g + cost
			if g > maxCost {
				continue
			}
			if existing, seen := visited[n]; seen && existing.g <= g {
				continue
			}
			h := aStarHeuristic(n, goal, start)
			visited[n] = node{g: g, h: h, from: cur.coord, hasFrom: true, insertionOrder: order}
			order++
			heap.Push(pq, &pqEntry{coord: n, g: g, h: h, insertionOrder: order})
		}
	}

	if !found {
		return nil
	}
	if _, ok := visited[target]; !ok {
		return nil
	}
	path := []Coord{target}
	cur := target
	for cur != start {
		n, ok := visited[cur]
		if !ok || !n.hasFrom {
			return nil
		}
		cur = n.from
		path = append([]Coord{cur}, path...)
	}
	return path
}
