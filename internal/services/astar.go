package services

import (
	"container/heap"
	"math"

	"github.com/paulmach/orb"

	"robot-navigator/internal/domain"
)

// Occupancy grid rasterized once from the static arena. A cell is blocked
// when its center is not free or lies closer to an obstacle than the safety
// margin (margin inflation keeps the robot body clear of edges).
type grid struct {
	cell    float64
	w, h    int
	minX    float64
	minY    float64
	blocked []bool
}

func newGrid(arena *domain.Arena, cell, margin float64) *grid {
	b := arena.Bounds()
	w := int(math.Ceil((b.Max.X() - b.Min.X()) / cell))
	h := int(math.Ceil((b.Max.Y() - b.Min.Y()) / cell))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	g := &grid{
		cell:    cell,
		w:       w,
		h:       h,
		minX:    b.Min.X(),
		minY:    b.Min.Y(),
		blocked: make([]bool, w*h),
	}

	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			center := g.center(cx, cy)
			if !arena.IsFree(center) || arena.DistanceToNearestObstacle(center) < margin {
				g.blocked[cy*w+cx] = true
			}
		}
	}
	return g
}

func (g *grid) center(cx, cy int) orb.Point {
	return orb.Point{
		g.minX + (float64(cx)+0.5)*g.cell,
		g.minY + (float64(cy)+0.5)*g.cell,
	}
}

func (g *grid) cellOf(p orb.Point) (int, int) {
	cx := int((p.X() - g.minX) / g.cell)
	cy := int((p.Y() - g.minY) / g.cell)
	if cx < 0 {
		cx = 0
	}
	if cx >= g.w {
		cx = g.w - 1
	}
	if cy < 0 {
		cy = 0
	}
	if cy >= g.h {
		cy = g.h - 1
	}
	return cx, cy
}

func (g *grid) isBlocked(cx, cy int) bool {
	return g.blocked[cy*g.w+cx]
}

// Eight-connected neighborhood; diagonal moves cost sqrt(2).
var gridMoves = [8][2]int{
	{0, 1}, {1, 0}, {0, -1}, {-1, 0},
	{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
}

type gridNode struct {
	idx     int
	g, f    float64
	parent  *gridNode
	heapIdx int
}

type nodeQueue []*gridNode

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].f < q[j].f }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].heapIdx = i; q[j].heapIdx = j }
func (q *nodeQueue) Push(x interface{}) { n := x.(*gridNode); n.heapIdx = len(*q); *q = append(*q, n) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.heapIdx = -1
	*q = old[:n-1]
	return node
}

// findPath runs A* between two world points and returns the smoothed
// polyline (excluding the start, ending exactly at `to`) plus its cost.
// The start cell is searched even when it falls inside the inflation margin,
// so a robot hugging an obstacle can still route out.
func (g *grid) findPath(from, to orb.Point) ([]orb.Point, float64, bool) {
	sx, sy := g.cellOf(from)
	tx, ty := g.cellOf(to)
	if g.isBlocked(tx, ty) {
		return nil, 0, false
	}
	if sx == tx && sy == ty {
		return []orb.Point{to}, euclid(from, to), true
	}

	startIdx := sy*g.w + sx
	goalIdx := ty*g.w + tx

	open := &nodeQueue{}
	heap.Init(open)
	start := &gridNode{idx: startIdx, g: 0, f: g.heuristic(sx, sy, tx, ty)}
	heap.Push(open, start)

	openSet := map[int]*gridNode{startIdx: start}
	closed := make(map[int]bool)

	for open.Len() > 0 {
		current := heap.Pop(open).(*gridNode)
		delete(openSet, current.idx)

		if current.idx == goalIdx {
			return g.reconstruct(current, from, to), current.g * g.cell, true
		}
		closed[current.idx] = true

		cx := current.idx % g.w
		cy := current.idx / g.w
		for _, mv := range gridMoves {
			nx, ny := cx+mv[0], cy+mv[1]
			if nx < 0 || nx >= g.w || ny < 0 || ny >= g.h {
				continue
			}
			if g.isBlocked(nx, ny) {
				continue
			}
			nIdx := ny*g.w + nx
			if closed[nIdx] {
				continue
			}

			moveCost := 1.0
			if mv[0] != 0 && mv[1] != 0 {
				moveCost = math.Sqrt2
			}
			tentative := current.g + moveCost

			neighbor, exists := openSet[nIdx]
			if !exists {
				neighbor = &gridNode{
					idx:    nIdx,
					g:      tentative,
					parent: current,
				}
				neighbor.f = tentative + g.heuristic(nx, ny, tx, ty)
				heap.Push(open, neighbor)
				openSet[nIdx] = neighbor
			} else if tentative < neighbor.g {
				neighbor.g = tentative
				neighbor.f = tentative + g.heuristic(nx, ny, tx, ty)
				neighbor.parent = current
				heap.Fix(open, neighbor.heapIdx)
			}
		}
	}

	return nil, 0, false
}

func (g *grid) heuristic(x1, y1, x2, y2 int) float64 {
	dx := float64(x1 - x2)
	dy := float64(y1 - y2)
	return math.Sqrt(dx*dx + dy*dy)
}

// reconstruct walks parents back to the start, converts cells to world
// coordinates, smooths with line-of-sight shortcuts and pins the endpoint.
func (g *grid) reconstruct(goal *gridNode, from, to orb.Point) []orb.Point {
	var cells []int
	for n := goal; n != nil; n = n.parent {
		cells = append(cells, n.idx)
	}
	// reverse into start -> goal order
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}

	cells = g.shortcut(cells)

	path := make([]orb.Point, 0, len(cells))
	for _, idx := range cells[1:] { // skip the start cell
		path = append(path, g.center(idx%g.w, idx/g.w))
	}
	if len(path) == 0 {
		return []orb.Point{to}
	}
	path[len(path)-1] = to
	return path
}

// shortcut drops intermediate cells whenever a straight grid line between two
// vertices stays clear, greedily taking the farthest visible vertex.
func (g *grid) shortcut(cells []int) []int {
	if len(cells) <= 2 {
		return cells
	}

	out := []int{cells[0]}
	i := 0
	for i < len(cells)-1 {
		j := len(cells) - 1
		for j > i+1 {
			if g.lineClear(cells[i], cells[j]) {
				break
			}
			j--
		}
		out = append(out, cells[j])
		i = j
	}
	return out
}

// lineClear runs Bresenham between two cells and reports whether every cell
// on the line is free.
func (g *grid) lineClear(aIdx, bIdx int) bool {
	x0, y0 := aIdx%g.w, aIdx/g.w
	x1, y1 := bIdx%g.w, bIdx/g.w

	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx - dy

	for {
		if g.isBlocked(x0, y0) {
			return false
		}
		if x0 == x1 && y0 == y1 {
			return true
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func euclid(a, b orb.Point) float64 {
	return math.Hypot(b.X()-a.X(), b.Y()-a.Y())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
