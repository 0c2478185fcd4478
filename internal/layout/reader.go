package layout

import "fmt"

// Reader consumes a raw vector segment by segment. The first error sticks;
// later reads are no-ops and Close reports it.
type Reader struct {
	layout *Layout
	raw    []float32
	pos    int
	next   int
	err    error
}

func (l *Layout) NewReader(raw []float32) *Reader {
	r := &Reader{layout: l, raw: raw}
	r.err = l.Check(raw)
	return r
}

// Floats fills dst from the next declared segment, which must be named name
// and have len(dst) scalars.
func (r *Reader) Floats(name string, dst []float32) {
	src := r.take(name, len(dst))
	copy(dst, src)
}

// XY is one interleaved (x, y) pair of an output vector.
type XY struct {
	X float32
	Y float32
}

// XY fills dst from the next segment, read as interleaved (x, y) pairs.
func (r *Reader) XY(name string, dst []XY) {
	src := r.take(name, 2*len(dst))
	if src == nil {
		return
	}
	for i := range dst {
		dst[i] = XY{X: src[2*i], Y: src[2*i+1]}
	}
}

// Scalar returns the next segment's single value.
func (r *Reader) Scalar(name string) float32 {
	src := r.take(name, 1)
	if src == nil {
		return 0
	}
	return src[0]
}

// Close reports the first error, or ErrUnderflow if segments remain unread.
func (r *Reader) Close() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.raw) || r.next != len(r.layout.segments) {
		return fmt.Errorf("%w: consumed %d of %d scalars", ErrUnderflow, r.pos, len(r.raw))
	}
	return nil
}

func (r *Reader) take(name string, n int) []float32 {
	if r.err != nil {
		return nil
	}
	if r.next >= len(r.layout.segments) {
		r.fail(fmt.Errorf("%w: no segment left for %q", ErrOverflow, name))
		return nil
	}
	seg := r.layout.segments[r.next]
	if seg.Name != name || seg.Len != n {
		r.fail(fmt.Errorf("%w: read %q[%d], next segment is %q[%d]", ErrSizeMismatch, name, n, seg.Name, seg.Len))
		return nil
	}
	if seg.End() > len(r.raw) {
		r.fail(fmt.Errorf("%w: segment %q ends at %d, vector has %d", ErrOverflow, name, seg.End(), len(r.raw)))
		return nil
	}
	r.next++
	r.pos = seg.End()
	return r.raw[seg.Offset:seg.End()]
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
