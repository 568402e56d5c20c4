package spatial

import (
	"math/rand"
	"sort"
	"testing"
)

func randBox(r *rand.Rand) AABB {
	p := Vec2{r.Float64()*200 - 100, r.Float64()*200 - 100}
	return BoxAround(p, 0.5+r.Float64()*2)
}

func TestTreeRandomOps(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	tree := NewTree(1)
	boxes := map[int32]AABB{}

	for step := 0; step < 2000; step++ {
		switch op := r.Intn(10); {
		case op < 5 || len(boxes) == 0:
			b := randBox(r)
			id := tree.CreateProxy(b, int32(step))
			boxes[id] = b
		case op < 8:
			for id := range boxes {
				b := boxes[id]
				d := Vec2{r.Float64()*4 - 2, r.Float64()*4 - 2}
				nb := AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
				tree.MoveProxy(id, nb)
				boxes[id] = nb
				break
			}
		default:
			for id := range boxes {
				tree.DestroyProxy(id)
				delete(boxes, id)
				break
			}
		}
		if step%100 == 0 {
			if err := tree.Validate(); err != nil {
				t.Fatalf("step %d: %v", step, err)
			}
		}
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}
	if tree.Len() != len(boxes) {
		t.Fatalf("Len = %d, want %d", tree.Len(), len(boxes))
	}

	for i := 0; i < 50; i++ {
		q := BoxAround(Vec2{r.Float64()*200 - 100, r.Float64()*200 - 100}, 15)
		var got []int32
		tree.Query(q, func(id int32) bool {
			got = append(got, id)
			return true
		})
		found := map[int32]bool{}
		for _, id := range got {
			found[id] = true
		}
		for id, b := range boxes {
			if b.Overlaps(q) && !found[id] {
				t.Fatalf("query %d missed proxy %d", i, id)
			}
		}
	}
}

func TestTreeMoveWithinFatBox(t *testing.T) {
	tree := NewTree(1)
	id := tree.CreateProxy(BoxAround(Vec2{}, 0.5), 3)
	if tree.MoveProxy(id, BoxAround(Vec2{0.2, 0.2}, 0.5)) {
		t.Error("small move reinserted the proxy")
	}
	if !tree.MoveProxy(id, BoxAround(Vec2{5, 5}, 0.5)) {
		t.Error("large move kept the old fat box")
	}
	if got := tree.Data(id); got != 3 {
		t.Errorf("Data = %d, want 3", got)
	}
}

func TestTreeHeightStaysLogarithmic(t *testing.T) {
	tree := NewTree(0)
	// Sorted insertion is the worst case without rotations.
	for i := 0; i < 1024; i++ {
		tree.CreateProxy(BoxAround(Vec2{float64(i), 0}, 0.4), int32(i))
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}
	if h := tree.Height(); h > 32 {
		t.Errorf("Height = %d for 1024 leaves", h)
	}
}

func TestTreeRayCastMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	tree := NewTree(0)
	var boxes []AABB
	for i := 0; i < 300; i++ {
		b := randBox(r)
		boxes = append(boxes, b)
		tree.CreateProxy(b, int32(i))
	}
	p1, p2 := Vec2{-100, -80}, Vec2{90, 100}
	var got []int
	tree.RayCast(p1, p2, func(id int32) bool {
		got = append(got, int(tree.Data(id)))
		return true
	})
	sort.Ints(got)
	found := map[int]bool{}
	for _, i := range got {
		found[i] = true
	}
	for i, b := range boxes {
		if segmentHitsBox(p1, p2, b) && !found[i] {
			t.Errorf("ray missed box %d", i)
		}
	}
}

// segmentHitsBox samples the segment densely.
func segmentHitsBox(p1, p2 Vec2, b AABB) bool {
	for i := 0; i <= 20000; i++ {
		p := p1.Lerp(p2, float64(i)/20000)
		if p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y {
			return true
		}
	}
	return false
}
