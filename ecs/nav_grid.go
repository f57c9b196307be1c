package ecs

import (
	"math"

	"github.com/jakecoffman/cp"
)

// navGrid rasterizes obstacles onto a 4-way grid and labels connected
// open regions once, so reachability is a label comparison.
type navGrid struct {
	cell    float64
	cols    int
	rows    int
	blocked []bool
	region  []int
}

func newNavGrid(width, height, cell float64, obstacles []Obstacle) *navGrid {
	if width <= 0 || height <= 0 {
		return nil
	}
	if cell <= 0 {
		cell = 1
	}
	g := &navGrid{
		cell: cell,
		cols: int(math.Ceil(width / cell)),
		rows: int(math.Ceil(height / cell)),
	}
	g.blocked = make([]bool, g.cols*g.rows)
	g.region = make([]int, g.cols*g.rows)

	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			cx := (float64(x) + 0.5) * cell
			cy := (float64(y) + 0.5) * cell
			for _, o := range obstacles {
				if cx > o.X && cx < o.X+o.W && cy > o.Y && cy < o.Y+o.H {
					g.blocked[y*g.cols+x] = true
					break
				}
			}
		}
	}
	g.label()
	return g
}

func (g *navGrid) label() {
	next := 0
	queue := make([]int, 0, 64)
	for start := range g.region {
		if g.blocked[start] || g.region[start] != 0 {
			continue
		}
		next++
		g.region[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			x, y := idx%g.cols, idx/g.cols
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= g.cols || ny >= g.rows {
					continue
				}
				n := ny*g.cols + nx
				if g.blocked[n] || g.region[n] != 0 {
					continue
				}
				g.region[n] = next
				queue = append(queue, n)
			}
		}
	}
}

func (g *navGrid) cellAt(p cp.Vector) (int, bool) {
	if p.X < 0 || p.Y < 0 {
		return 0, false
	}
	x := int(p.X / g.cell)
	y := int(p.Y / g.cell)
	if x >= g.cols || y >= g.rows {
		return 0, false
	}
	return y*g.cols + x, true
}

// regionNear returns the region of p's cell, or of an open neighbour when
// p sits on a blocked cell (e.g. hugging a wall).
func (g *navGrid) regionNear(p cp.Vector) int {
	idx, ok := g.cellAt(p)
	if !ok {
		return 0
	}
	if r := g.region[idx]; r != 0 {
		return r
	}
	x, y := idx%g.cols, idx/g.cols
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || ny < 0 || nx >= g.cols || ny >= g.rows {
			continue
		}
		if r := g.region[ny*g.cols+nx]; r != 0 {
			return r
		}
	}
	return 0
}

func (g *navGrid) connected(a, b cp.Vector) bool {
	ra := g.regionNear(a)
	return ra != 0 && ra == g.regionNear(b)
}
