package denorm

import (
	"fmt"
	"math"

	"github.com/Brownie44l1/modeld/internal/layout"
)

// Apply writes the denormalized form of raw into dst. Scalars covered by the
// table become raw*scale+bias, or exp(raw*scale+bias) inside Exp segments;
// everything past the table is copied unchanged. dst and raw may alias.
func Apply(dst, raw []float32, t *Table, l *layout.Layout) error {
	if err := l.Check(raw); err != nil {
		return err
	}
	if len(dst) != len(raw) {
		return fmt.Errorf("denorm destination has %d scalars, need %d", len(dst), len(raw))
	}
	if t.Len() != l.Scaled() {
		return fmt.Errorf("denorm table covers %d scalars, layout scales %d", t.Len(), l.Scaled())
	}

	for _, s := range l.Segments() {
		for i := s.Offset; i < s.End(); i++ {
			switch s.Transform {
			case layout.Linear:
				dst[i] = raw[i]*t.Scale[i] + t.Bias[i]
			case layout.Exp:
				dst[i] = float32(math.Exp(float64(raw[i]*t.Scale[i] + t.Bias[i])))
			default:
				dst[i] = raw[i]
			}
		}
	}
	return nil
}
