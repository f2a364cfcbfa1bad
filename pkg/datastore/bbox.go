package datastore

// Bbox is an axis-aligned bounding box spatial predicate in EPSG:4326
// coordinates (lon/lat). The zero value means "unconstrained".
type Bbox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// IsZero reports whether the box is unconstrained.
func (b Bbox) IsZero() bool {
	return b == Bbox{}
}

// Contains reports whether the point (x, y) falls inside the box.
func (b Bbox) Contains(x, y float64) bool {
	if b.IsZero() {
		return true
	}
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Intersects reports whether the two boxes overlap.
func (b Bbox) Intersects(other Bbox) bool {
	if b.IsZero() || other.IsZero() {
		return true
	}
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

// Intersect returns the box common to both predicates. ok is false when the
// boxes are disjoint. An unconstrained box acts as identity.
func (b Bbox) Intersect(other Bbox) (Bbox, bool) {
	if b.IsZero() {
		return other, true
	}
	if other.IsZero() {
		return b, true
	}
	if !b.Intersects(other) {
		return Bbox{}, false
	}
	out := b
	if other.MinX > out.MinX {
		out.MinX = other.MinX
	}
	if other.MinY > out.MinY {
		out.MinY = other.MinY
	}
	if other.MaxX < out.MaxX {
		out.MaxX = other.MaxX
	}
	if other.MaxY < out.MaxY {
		out.MaxY = other.MaxY
	}
	return out, true
}
