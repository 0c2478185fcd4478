// Package layout declares how a model's flat float32 output vector maps onto
// named, ordered segments. A Layout is built once at startup and checked
// against the expected vector length; decoding walks the segments in
// declaration order with a Reader.
package layout

import (
	"errors"
	"fmt"
	"strings"
)

// Transform selects how the denormalizer treats a segment.
type Transform int

const (
	// Linear segments become raw*scale+bias.
	Linear Transform = iota
	// Exp segments become exp(raw*scale+bias) and are always positive.
	Exp
	// Passthrough segments are never scaled.
	Passthrough
)

func (t Transform) String() string {
	switch t {
	case Linear:
		return "linear"
	case Exp:
		return "exp"
	case Passthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("transform(%d)", int(t))
	}
}

var (
	ErrSizeMismatch = errors.New("layout size mismatch")
	ErrOverflow     = errors.New("layout overflow")
	ErrUnderflow    = errors.New("layout underflow")
)

// Segment is a contiguous run of scalars inside the output vector.
type Segment struct {
	Name      string
	Offset    int
	Len       int
	Transform Transform
}

// End is the offset one past the segment.
func (s Segment) End() int {
	return s.Offset + s.Len
}

// Layout is an immutable, validated list of segments.
type Layout struct {
	segments []Segment
	size     int
}

type Builder struct {
	segments []Segment
	size     int
	err      error
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a segment after the previously added ones.
func (b *Builder) Add(name string, n int, t Transform) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("segment %q: length must be positive, got %d", name, n)
		return b
	}
	for _, s := range b.segments {
		if s.Name == name {
			b.err = fmt.Errorf("segment %q declared twice", name)
			return b
		}
	}
	b.segments = append(b.segments, Segment{Name: name, Offset: b.size, Len: n, Transform: t})
	b.size += n
	return b
}

// Build returns the layout if its declared scalars sum to exactly expected.
func (b *Builder) Build(expected int) (*Layout, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.size != expected {
		return nil, fmt.Errorf("%w: segments declare %d scalars, vector has %d", ErrSizeMismatch, b.size, expected)
	}
	segments := make([]Segment, len(b.segments))
	copy(segments, b.segments)
	return &Layout{segments: segments, size: b.size}, nil
}

// MustBuild is Build for package-level layouts; a mismatch is a programming
// error and panics at init.
func (b *Builder) MustBuild(expected int) *Layout {
	l, err := b.Build(expected)
	if err != nil {
		panic(err)
	}
	return l
}

// Size is the total scalar count.
func (l *Layout) Size() int {
	return l.size
}

func (l *Layout) Segments() []Segment {
	out := make([]Segment, len(l.segments))
	copy(out, l.segments)
	return out
}

// Segment looks a segment up by name.
func (l *Layout) Segment(name string) (Segment, bool) {
	for _, s := range l.segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// Scaled is the number of leading scalars that carry a scale/bias pair: every
// scalar up to the last non-passthrough segment.
func (l *Layout) Scaled() int {
	n := 0
	for _, s := range l.segments {
		if s.Transform != Passthrough {
			n = s.End()
		}
	}
	return n
}

// TransformAt reports the transform of scalar i.
func (l *Layout) TransformAt(i int) Transform {
	for _, s := range l.segments {
		if i >= s.Offset && i < s.End() {
			return s.Transform
		}
	}
	return Passthrough
}

// Check fails unless raw has exactly the layout's length.
func (l *Layout) Check(raw []float32) error {
	if len(raw) != l.size {
		return fmt.Errorf("%w: vector has %d scalars, layout needs %d", ErrSizeMismatch, len(raw), l.size)
	}
	return nil
}

// Group is a run of adjacent scaled segments sharing the name prefix before
// the first dot ("plan.mean" and "plan.std" form group "plan"). Denorm tables
// store all scales of a group followed by all its biases.
type Group struct {
	Name   string
	Offset int
	Len    int
}

func (g Group) End() int {
	return g.Offset + g.Len
}

// Groups lists the scaled groups in declaration order.
func (l *Layout) Groups() []Group {
	var groups []Group
	for _, s := range l.segments {
		if s.Transform == Passthrough {
			continue
		}
		name := groupName(s.Name)
		if n := len(groups); n > 0 && groups[n-1].Name == name && groups[n-1].End() == s.Offset {
			groups[n-1].Len += s.Len
			continue
		}
		groups = append(groups, Group{Name: name, Offset: s.Offset, Len: s.Len})
	}
	return groups
}

func groupName(segment string) string {
	if i := strings.IndexByte(segment, '.'); i >= 0 {
		return segment[:i]
	}
	return segment
}
