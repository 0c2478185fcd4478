// Package denorm loads per-scalar scale/bias tables and turns raw network
// outputs into physical units.
package denorm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Brownie44l1/modeld/internal/layout"
)

var ErrShortTable = errors.New("denorm table too short")

// Table holds one scale and one bias per scaled scalar, indexed by position
// in the raw output vector. It is read-only once loaded.
type Table struct {
	Scale []float32
	Bias  []float32
}

// Len is the number of scalars the table covers.
func (t *Table) Len() int {
	return len(t.Scale)
}

// Count is how many values a table file for l holds.
func Count(l *layout.Layout) int {
	return 2 * l.Scaled()
}

// LoadFile reads the table for l from path. See Load for the format.
func LoadFile(path string, l *layout.Layout) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open denorm table: %w", err)
	}
	defer f.Close()

	t, err := Load(f, l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads whitespace-separated decimal floats. For every scaled group of l
// in order, the file holds the group's scales followed by its biases. Values
// after the expected count are ignored.
func Load(r io.Reader, l *layout.Layout) (*Table, error) {
	t := Identity(l)

	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	read := 0
	next := func(dst []float32) error {
		for i := range dst {
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return fmt.Errorf("failed to read denorm table: %w", err)
				}
				return fmt.Errorf("%w: got %d values, need %d", ErrShortTable, read, Count(l))
			}
			v, err := strconv.ParseFloat(sc.Text(), 32)
			if err != nil {
				return fmt.Errorf("malformed denorm value %d %q: %w", read, sc.Text(), err)
			}
			dst[i] = float32(v)
			read++
		}
		return nil
	}

	for _, g := range l.Groups() {
		if err := next(t.Scale[g.Offset:g.End()]); err != nil {
			return nil, err
		}
		if err := next(t.Bias[g.Offset:g.End()]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Identity is a table with every scale 1 and bias 0.
func Identity(l *layout.Layout) *Table {
	n := l.Scaled()
	t := &Table{Scale: make([]float32, n), Bias: make([]float32, n)}
	for i := range t.Scale {
		t.Scale[i] = 1
	}
	return t
}
