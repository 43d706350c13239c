package beacon

import (
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/linesim/linesim/pkg/geometry"
)

// entry wraps a beacon with the bounding box of its effect circle for
// R-tree storage.
type entry struct {
	beacon Beacon
	bbox   rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *entry) Bounds() rtreego.Rect { return e.bbox }

// Field holds the beacons placed on a track and answers range queries with
// an R-tree over their effect circles.
type Field struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	all  []Beacon
}

// NewField creates an empty beacon field.
func NewField() *Field {
	return &Field{tree: rtreego.NewTree(2, 2, 8)}
}

// Add places a beacon on the field.
func (f *Field) Add(b Beacon) error {
	bbox, err := rtreego.NewRect(
		rtreego.Point{b.Pos.X - b.Radius, b.Pos.Y - b.Radius},
		[]float64{2 * b.Radius, 2 * b.Radius},
	)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.tree.Insert(&entry{beacon: b, bbox: bbox})
	f.all = append(f.all, b)
	f.mu.Unlock()
	return nil
}

// Sum accumulates the readings of every beacon of the given kind at a point.
// Only beacons whose effect circle can reach the point are visited.
func (f *Field) Sum(kind Kind, at geometry.Vec2) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	probe, err := rtreego.NewRect(rtreego.Point{at.X, at.Y}, []float64{1, 1})
	if err != nil {
		return 0
	}
	total := 0.0
	for _, item := range f.tree.SearchIntersect(probe) {
		e := item.(*entry)
		if e.beacon.Kind != kind {
			continue
		}
		total += e.beacon.Reading(at)
	}
	return total
}

// All returns a snapshot of the placed beacons, for rendering.
func (f *Field) All() []Beacon {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Beacon, len(f.all))
	copy(out, f.all)
	return out
}

// Len returns the number of placed beacons.
func (f *Field) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.all)
}
