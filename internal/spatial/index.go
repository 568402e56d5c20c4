package spatial

import (
	"math"
	"sort"
)

const (
	emitterHalfSize = 0.5
	emitterMargin   = 2.0
	jointEps        = 1e-9
)

// Index holds positioned sound emitters and static wall segments. It is not
// synchronised; callers serialise access.
type Index struct {
	emitters *Tree
	walls    *Tree
	segments []Segment
	hits     []rayHit
}

type rayHit struct {
	t   float64
	seg int32
}

func NewIndex() *Index {
	return &Index{
		emitters: NewTree(emitterMargin),
		walls:    NewTree(0),
	}
}

// AddEmitter registers a channel at pos and returns its proxy id.
func (x *Index) AddEmitter(pos Vec2, channel int32) int32 {
	return x.emitters.CreateProxy(BoxAround(pos, emitterHalfSize), channel)
}

// MoveEmitter updates a proxy after its owner moved.
func (x *Index) MoveEmitter(proxy int32, pos Vec2) {
	x.emitters.MoveProxy(proxy, BoxAround(pos, emitterHalfSize))
}

func (x *Index) RemoveEmitter(proxy int32) {
	x.emitters.DestroyProxy(proxy)
}

// Emitters returns the number of registered emitters.
func (x *Index) Emitters() int { return x.emitters.Len() }

// QueryNearby appends to out the channels whose proxies overlap the square
// of half size radius around pos. Results are a superset of the channels
// within radius; callers apply the exact distance test.
func (x *Index) QueryNearby(pos Vec2, radius float64, out []int32) []int32 {
	x.emitters.Query(BoxAround(pos, radius), func(id int32) bool {
		out = append(out, x.emitters.Data(id))
		return true
	})
	return out
}

// AddStatic registers the wall segments of poly placed by tr.
func (x *Index) AddStatic(tr Transform, poly Polyline) {
	for _, seg := range poly.Segments(tr) {
		x.segments = append(x.segments, seg)
		x.walls.CreateProxy(SegmentBox(seg.A, seg.B), int32(len(x.segments)-1))
	}
}

// ClearStatic removes all wall geometry.
func (x *Index) ClearStatic() {
	x.walls.Clear()
	x.segments = x.segments[:0]
}

// Walls returns the number of wall segments.
func (x *Index) Walls() int { return len(x.segments) }

// RaycastAppend appends to out the fractions along a->b at which walls are
// crossed, in ascending order. A ray through the joint of two connected
// segments counts as one crossing.
func (x *Index) RaycastAppend(a, b Vec2, out []float64) []float64 {
	x.hits = x.hits[:0]
	x.walls.RayCast(a, b, func(id int32) bool {
		seg := x.walls.Data(id)
		if t, ok := x.segments[seg].Intersect(a, b); ok {
			x.hits = append(x.hits, rayHit{t: t, seg: seg})
		}
		return true
	})
	sort.Slice(x.hits, func(i, j int) bool { return x.hits[i].t < x.hits[j].t })
	var last rayHit
	for i, h := range x.hits {
		if i > 0 && h.t-last.t <= jointEps && x.segments[h.seg].Joins(x.segments[last.seg]) {
			continue
		}
		out = append(out, h.t)
		last = h
	}
	return out
}

// Raycast returns the ascending hit fractions along a->b.
func (x *Index) Raycast(a, b Vec2) []float64 {
	return x.RaycastAppend(a, b, nil)
}

// firstHit returns the nearest hit fraction along a->b, or 1 when clear.
func (x *Index) firstHit(a, b Vec2) float64 {
	best := 1.0
	x.walls.RayCast(a, b, func(id int32) bool {
		if t, ok := x.segments[x.walls.Data(id)].Intersect(a, b); ok && t < best {
			best = t
		}
		return true
	})
	return best
}

// Openness casts rays evenly spaced directions of length radius from pos.
// open is the fraction of rays that hit nothing; meanHit is the mean
// distance to the first wall over the rays that hit, or radius when none did.
func (x *Index) Openness(pos Vec2, rays int, radius float64) (open, meanHit float64) {
	if rays <= 0 {
		return 1, radius
	}
	clear := 0
	sum := 0.0
	for i := 0; i < rays; i++ {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(rays))
		end := pos.Add(Vec2{c * radius, s * radius})
		t := x.firstHit(pos, end)
		if t >= 1 {
			clear++
			continue
		}
		sum += t * radius
	}
	hit := rays - clear
	if hit == 0 {
		return 1, radius
	}
	return float64(clear) / float64(rays), sum / float64(hit)
}
