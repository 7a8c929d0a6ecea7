package application

import (
	"math"

	"github.com/jhaladik/christmas-hunt-game/utils"
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2               { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2               { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2          { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64                  { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64           { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool                  { return v.X == 0 && v.Y == 0 }
func (v Vec2) Finite() bool                  { return utils.Finite(v.X, v.Y) }
func (v Vec2) Within(o Vec2, r float64) bool { return v.Dist(o) <= r }

// Normalize returns the unit vector, or the zero vector for a zero input.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// ClampLen shortens v to max length m; shorter vectors are kept as is.
func (v Vec2) ClampLen(m float64) Vec2 {
	l := v.Len()
	if l <= m || l == 0 {
		return v
	}
	return v.Scale(m / l)
}

// StepToward moves v toward target by at most step.
func (v Vec2) StepToward(target Vec2, step float64) Vec2 {
	d := target.Sub(v)
	if d.Len() <= step {
		return target
	}
	return v.Add(d.Normalize().Scale(step))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Bounds is the playable rectangle [0,W]x[0,H].
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Bounds) Clamp(p Vec2) Vec2 {
	return Vec2{clamp(p.X, 0, b.Width), clamp(p.Y, 0, b.Height)}
}

func (b Bounds) Contains(p Vec2) bool {
	return p.X >= 0 && p.X <= b.Width && p.Y >= 0 && p.Y <= b.Height
}

func (b Bounds) Center() Vec2 { return Vec2{b.Width / 2, b.Height / 2} }

// pushOut moves p radially away from center until it is exactly minDist away.
// A point on the center is pushed along +x.
func pushOut(p, center Vec2, minDist float64) Vec2 {
	d := p.Sub(center)
	if d.IsZero() {
		return Vec2{center.X + minDist, center.Y}
	}
	return center.Add(d.Normalize().Scale(minDist))
}
