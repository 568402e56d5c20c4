package spatial

import (
	"math"
	"testing"
)

func TestRaycastThroughWall(t *testing.T) {
	x := NewIndex()
	// Two segments meeting at (0,0) form a wall across the y axis.
	x.AddStatic(Identity, Polyline{Points: []Vec2{{0, -10}, {0, 0}}})
	x.AddStatic(Identity, Polyline{Points: []Vec2{{0, 0}, {0, 10}}})

	hits := x.Raycast(Vec2{-5, 1}, Vec2{5, 1})
	if len(hits) != 1 {
		t.Fatalf("hits = %v, want exactly one", hits)
	}
	if hits[0] <= 0 || hits[0] >= 1 {
		t.Errorf("hit fraction %v outside (0,1)", hits[0])
	}
	if got := x.Raycast(Vec2{-5, 20}, Vec2{5, 20}); len(got) != 0 {
		t.Errorf("ray above the wall hit %v", got)
	}
}

func TestRaycastThroughJoint(t *testing.T) {
	tests := []struct {
		name string
		poly Polyline
		tr   Transform
		a, b Vec2
		want int
	}{
		{
			name: "straight polyline",
			poly: Polyline{Points: []Vec2{{0, -10}, {0, 0}, {0, 10}}},
			tr:   Identity,
			a:    Vec2{-5, 0}, b: Vec2{5, 0},
			want: 1,
		},
		{
			name: "bent polyline",
			poly: Polyline{Points: []Vec2{{-3, -10}, {0, 0}, {-3, 10}}},
			tr:   Identity,
			a:    Vec2{-5, 0}, b: Vec2{5, 0},
			want: 1,
		},
		{
			name: "closed box corner to corner",
			poly: Polyline{Points: []Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}, Closed: true},
			tr:   Transform{Pos: Vec2{10, 0}},
			a:    Vec2{5, -5}, b: Vec2{15, 5},
			want: 2,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x := NewIndex()
			x.AddStatic(tc.tr, tc.poly)
			if hits := x.Raycast(tc.a, tc.b); len(hits) != tc.want {
				t.Errorf("hits = %v, want %d", hits, tc.want)
			}
		})
	}
}

func TestRaycastSortedAndTransformed(t *testing.T) {
	x := NewIndex()
	box := Polyline{Points: []Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}, Closed: true}
	x.AddStatic(Transform{Pos: Vec2{10, 0}}, box)
	if x.Walls() != 4 {
		t.Fatalf("Walls = %d, want 4", x.Walls())
	}
	hits := x.Raycast(Vec2{0, 0}, Vec2{20, 0})
	if len(hits) != 2 {
		t.Fatalf("hits = %v, want 2", hits)
	}
	if !(hits[0] < hits[1]) {
		t.Errorf("hits not ascending: %v", hits)
	}
	if math.Abs(hits[0]-0.45) > 1e-9 || math.Abs(hits[1]-0.55) > 1e-9 {
		t.Errorf("hits = %v, want [0.45 0.55]", hits)
	}

	x.ClearStatic()
	if got := x.Raycast(Vec2{0, 0}, Vec2{20, 0}); len(got) != 0 {
		t.Errorf("after ClearStatic hits = %v", got)
	}
}

func TestQueryNearby(t *testing.T) {
	x := NewIndex()
	a := x.AddEmitter(Vec2{0, 0}, 1)
	x.AddEmitter(Vec2{100, 0}, 2)

	got := x.QueryNearby(Vec2{}, 10, nil)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("QueryNearby = %v, want [1]", got)
	}
	x.MoveEmitter(a, Vec2{200, 0})
	if got := x.QueryNearby(Vec2{}, 10, nil); len(got) != 0 {
		t.Errorf("after move QueryNearby = %v", got)
	}
	x.RemoveEmitter(a)
	if x.Emitters() != 1 {
		t.Errorf("Emitters = %d, want 1", x.Emitters())
	}
}

func TestOpenness(t *testing.T) {
	x := NewIndex()
	open, mean := x.Openness(Vec2{}, 16, 40)
	if open != 1 || mean != 40 {
		t.Errorf("empty level: open=%v mean=%v", open, mean)
	}

	room := Polyline{Points: []Vec2{{-5, -5}, {5, -5}, {5, 5}, {-5, 5}}, Closed: true}
	x.AddStatic(Identity, room)
	open, mean = x.Openness(Vec2{}, 16, 40)
	if open != 0 {
		t.Errorf("closed room open = %v, want 0", open)
	}
	if mean < 5 || mean > 5*math.Sqrt2+1e-9 {
		t.Errorf("closed room mean hit = %v", mean)
	}
}
