package ecs

import (
	"math"

	"github.com/jakecoffman/cp"
)

const collisionTypeSolid cp.CollisionType = 1

// Obstacle is an axis-aligned solid box; X/Y is the min corner.
type Obstacle struct {
	X, Y, W, H float64
}

// CollisionWorld owns the Chipmunk space holding a level's static
// obstacles and a navigation grid rasterized from the same boxes. It
// answers line-of-sight and reachability queries; it never moves bodies.
type CollisionWorld struct {
	space     *cp.Space
	obstacles []Obstacle
	width     float64
	height    float64
	nav       *navGrid
}

// NewCollisionWorld builds the static space for a width x height arena.
// cellSize controls the navigation grid resolution.
func NewCollisionWorld(width, height, cellSize float64, obstacles []Obstacle) *CollisionWorld {
	space := cp.NewSpace()

	cw := &CollisionWorld{
		space:     space,
		obstacles: append([]Obstacle(nil), obstacles...),
		width:     width,
		height:    height,
	}
	for _, o := range cw.obstacles {
		if o.W <= 0 || o.H <= 0 {
			continue
		}
		shape := cp.NewBox2(space.StaticBody, cp.BB{L: o.X, B: o.Y, R: o.X + o.W, T: o.Y + o.H}, 0)
		shape.SetCollisionType(collisionTypeSolid)
		space.AddShape(shape)
	}
	cw.nav = newNavGrid(width, height, cellSize, cw.obstacles)
	return cw
}

// Obstacles returns the static boxes.
func (cw *CollisionWorld) Obstacles() []Obstacle {
	if cw == nil {
		return nil
	}
	return cw.obstacles
}

// Size returns the arena extent.
func (cw *CollisionWorld) Size() (float64, float64) {
	if cw == nil {
		return 0, 0
	}
	return cw.width, cw.height
}

// HasLineOfSight reports whether the segment a->b crosses no solid shape.
func (cw *CollisionWorld) HasLineOfSight(a, b cp.Vector) bool {
	if cw == nil || cw.space == nil {
		return true
	}
	if a.Near(b, 1e-9) {
		return !cw.Blocked(a)
	}
	info := cw.space.SegmentQueryFirst(a, b, 0, cp.SHAPE_FILTER_ALL)
	return info.Shape == nil
}

// Blocked reports whether p lies inside an obstacle.
func (cw *CollisionWorld) Blocked(p cp.Vector) bool {
	if cw == nil {
		return false
	}
	for _, o := range cw.obstacles {
		if p.X >= o.X && p.X <= o.X+o.W && p.Y >= o.Y && p.Y <= o.Y+o.H {
			return true
		}
	}
	return false
}

// CanReach reports whether a walker at from can get to to without
// crossing obstacles. Points outside the arena are unreachable.
func (cw *CollisionWorld) CanReach(from, to cp.Vector) bool {
	if cw == nil || cw.nav == nil {
		return true
	}
	return cw.nav.connected(from, to)
}

// ClampToBounds keeps p inside the arena.
func (cw *CollisionWorld) ClampToBounds(p cp.Vector) cp.Vector {
	if cw == nil || cw.width <= 0 || cw.height <= 0 {
		return p
	}
	return cp.Vector{
		X: math.Max(0, math.Min(cw.width, p.X)),
		Y: math.Max(0, math.Min(cw.height, p.Y)),
	}
}
