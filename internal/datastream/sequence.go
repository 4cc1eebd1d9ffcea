package datastream

import (
	"fmt"
)

// Sequence is an immutable, time-ordered list of points representing one logical channel
// (raw samples, detected peaks, cycle durations or windowed statistics).
// The zero value is an empty sequence.
//
// Sources records which upstream sequences this one was derived from. It is bookkeeping only.
type Sequence struct {
	name    string
	points  []Point
	sources []string
}

// New validates that points are non-decreasing in start time and returns a sequence
// holding its own copy of them.
func New(name string, points []Point, sources ...string) (Sequence, error) {
	for i := 1; i < len(points); i++ {
		if points[i].Start.Before(points[i-1].Start) {
			return Sequence{}, fmt.Errorf("%w: %s at index %d", ErrUnordered, name, i)
		}
	}
	b := NewBuilder(name, sources...)
	b.points = make([]Point, len(points))
	copy(b.points, points)
	return b.Build(), nil
}

func (s Sequence) Name() string { return s.name }

// Sources returns a copy of the provenance names.
func (s Sequence) Sources() []string {
	out := make([]string, len(s.sources))
	copy(out, s.sources)
	return out
}

func (s Sequence) Len() int    { return len(s.points) }
func (s Sequence) Empty() bool { return len(s.points) == 0 }

// At returns the i-th point. It panics if i is out of range, like slice indexing.
func (s Sequence) At(i int) Point {
	return s.points[i]
}

// First and Last panic on an empty sequence.
func (s Sequence) First() Point { return s.points[0] }
func (s Sequence) Last() Point  { return s.points[len(s.points)-1] }

// Points returns a copy of the underlying points.
func (s Sequence) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Samples returns the sample values in order.
func (s Sequence) Samples() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Sample
	}
	return out
}

// Slice returns the sub-sequence [i, j). The result shares storage with s, which is safe
// because neither can be mutated.
func (s Sequence) Slice(i, j int) (Sequence, error) {
	if i < 0 || j > len(s.points) || i > j {
		return Sequence{}, fmt.Errorf("%w: [%d:%d] of %d", ErrIndexOutRange, i, j, len(s.points))
	}
	return Sequence{name: s.name, points: s.points[i:j:j], sources: s.sources}, nil
}

// Derive starts a builder for a new sequence whose provenance is this one.
func (s Sequence) Derive(name string) *Builder {
	return NewBuilder(name, s.name)
}

// Builder accumulates points for a new sequence. Producers append in time order;
// Build hands the points over and the builder must not be reused afterwards.
type Builder struct {
	name    string
	points  []Point
	sources []string
}

// NewBuilder creates a builder for a sequence derived from the named sources.
func NewBuilder(name string, sources ...string) *Builder {
	src := make([]string, 0, len(sources))
	for _, s := range sources {
		if s != "" {
			src = append(src, s)
		}
	}
	return &Builder{name: name, sources: src}
}

// Grow preallocates room for n more points.
func (b *Builder) Grow(n int) *Builder {
	if n > cap(b.points)-len(b.points) {
		grown := make([]Point, len(b.points), len(b.points)+n)
		copy(grown, b.points)
		b.points = grown
	}
	return b
}

func (b *Builder) Append(p Point) *Builder {
	b.points = append(b.points, p)
	return b
}

func (b *Builder) Build() Sequence {
	s := Sequence{name: b.name, points: b.points, sources: b.sources}
	b.points = nil
	return s
}
