// Package spatial holds the 2D geometry used by the sound engine: a dynamic
// AABB tree and an index of sound emitters and static wall segments built
// on top of it.
package spatial

import "math"

// Vec2 is a point or direction in world units.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2             { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2             { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2        { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Dot(o Vec2) float64          { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64        { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Len() float64                { return math.Hypot(v.X, v.Y) }
func (v Vec2) Len2() float64               { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Dist(o Vec2) float64         { return v.Sub(o).Len() }
func (v Vec2) Dist2(o Vec2) float64        { return v.Sub(o).Len2() }
func (v Vec2) Perp() Vec2                  { return Vec2{-v.Y, v.X} }
func (v Vec2) Abs() Vec2                   { return Vec2{math.Abs(v.X), math.Abs(v.Y)} }
func (v Vec2) Lerp(o Vec2, t float64) Vec2 { return v.Add(o.Sub(v).Scale(t)) }

// AABB is an axis aligned box with Min <= Max on both axes.
type AABB struct {
	Min, Max Vec2
}

// BoxAround returns the square box of half size h centered on p.
func BoxAround(p Vec2, h float64) AABB {
	return AABB{Min: Vec2{p.X - h, p.Y - h}, Max: Vec2{p.X + h, p.Y + h}}
}

// SegmentBox returns the bounding box of the segment a-b.
func SegmentBox(a, b Vec2) AABB {
	return AABB{
		Min: Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vec2{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y)},
		Max: Vec2{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y)},
	}
}

func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X && b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y
}

func (b AABB) Contains(o AABB) bool {
	return b.Min.X <= o.Min.X && b.Min.Y <= o.Min.Y && o.Max.X <= b.Max.X && o.Max.Y <= b.Max.Y
}

// Expand grows the box by m on every side.
func (b AABB) Expand(m float64) AABB {
	return AABB{Min: Vec2{b.Min.X - m, b.Min.Y - m}, Max: Vec2{b.Max.X + m, b.Max.Y + m}}
}

func (b AABB) Center() Vec2  { return b.Min.Add(b.Max).Scale(0.5) }
func (b AABB) Extents() Vec2 { return b.Max.Sub(b.Min).Scale(0.5) }

// Perimeter is the insertion cost metric of the tree.
func (b AABB) Perimeter() float64 {
	return 2 * ((b.Max.X - b.Min.X) + (b.Max.Y - b.Min.Y))
}

// Transform places level geometry: rotate by Angle radians, then translate.
type Transform struct {
	Pos   Vec2
	Angle float64
}

// Identity leaves points unchanged.
var Identity = Transform{}

// Apply maps a local point into world space.
func (t Transform) Apply(p Vec2) Vec2 {
	if t.Angle == 0 {
		return p.Add(t.Pos)
	}
	s, c := math.Sincos(t.Angle)
	return Vec2{c*p.X - s*p.Y + t.Pos.X, s*p.X + c*p.Y + t.Pos.Y}
}

// Polyline is a chain of wall segments. A closed polyline also joins the
// last point to the first.
type Polyline struct {
	Points []Vec2
	Closed bool
}

// Segments returns the edges of p placed by tr.
func (p Polyline) Segments(tr Transform) []Segment {
	n := len(p.Points)
	if n < 2 {
		return nil
	}
	edges := n - 1
	if p.Closed && n > 2 {
		edges = n
	}
	segs := make([]Segment, edges)
	for i := range segs {
		segs[i] = Segment{A: tr.Apply(p.Points[i]), B: tr.Apply(p.Points[(i+1)%n])}
	}
	return segs
}

// Segment is one wall edge in world space.
type Segment struct {
	A, B Vec2
}

// Joins reports whether s and o share an endpoint.
func (s Segment) Joins(o Segment) bool {
	near := func(p, q Vec2) bool { return p.Dist2(q) <= jointEps*jointEps }
	return near(s.A, o.A) || near(s.A, o.B) || near(s.B, o.A) || near(s.B, o.B)
}

// Intersect returns the fraction along p->q where it crosses the segment.
func (s Segment) Intersect(p, q Vec2) (float64, bool) {
	r := q.Sub(p)
	d := s.B.Sub(s.A)
	denom := r.Cross(d)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	ap := s.A.Sub(p)
	t := ap.Cross(d) / denom
	u := ap.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}
