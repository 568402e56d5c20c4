package engine

import (
	"math"
	"time"

	"sound-engine/internal/spatial"
)

// orbiter is a sound source circling a fixed centre. It implements
// audio.Emitter.
type orbiter struct {
	centre spatial.Vec2
	radius float64
	speed  float64 // radians per second
	angle  float64
}

func (o *orbiter) Position() spatial.Vec2 {
	s, c := math.Sincos(o.angle)
	return o.centre.Add(spatial.Vec2{X: c * o.radius, Y: s * o.radius})
}

func (o *orbiter) advance(dt time.Duration) {
	o.angle = math.Mod(o.angle+o.speed*dt.Seconds(), 2*math.Pi)
}

// placedWall is a piece of level geometry with its placement.
type placedWall struct {
	tr   spatial.Transform
	poly spatial.Polyline
}

// Fixed positions in the demo level
var (
	dripPos    = spatial.Vec2{X: 30, Y: 0}
	motorTrack = spatial.Vec2{X: -25, Y: 0}
)

// levelWalls builds the demo level: a room with a doorway facing the
// start position, holding the drip, and a rotated pillar south of it.
func levelWalls() []placedWall {
	room := spatial.Polyline{Points: []spatial.Vec2{
		{X: 20, Y: -4}, {X: 20, Y: -10}, {X: 40, Y: -10},
		{X: 40, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 4},
	}}
	pillar := spatial.Polyline{
		Points: []spatial.Vec2{{X: -3, Y: -3}, {X: 3, Y: -3}, {X: 3, Y: 3}, {X: -3, Y: 3}},
		Closed: true,
	}
	return []placedWall{
		{tr: spatial.Identity, poly: room},
		{tr: spatial.Transform{Pos: spatial.Vec2{X: 0, Y: 20}, Angle: math.Pi / 4}, poly: pillar},
	}
}
