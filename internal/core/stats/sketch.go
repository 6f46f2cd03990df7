package stats

import (
	"fmt"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/influxdata/tdigest"
)

// DDSketchRelativeAccuracy is the relative accuracy of every DDSketch built
// by this package. Sketches only merge when their accuracy matches.
const DDSketchRelativeAccuracy = 0.01

// TDigest estimates quantiles with bounded memory.
// The zero value is empty and ready to use.
type TDigest struct {
	digest *tdigest.TDigest
	n      uint64
}

func NewTDigest() *TDigest {
	t := &TDigest{}
	t.init()
	return t
}

func (t *TDigest) init() {
	if t.digest == nil {
		t.digest = tdigest.New()
	}
}

func (t *TDigest) Add(x float64) {
	t.init()
	t.digest.Add(x, 1)
	t.n++
}

func (t *TDigest) Len() uint64 { return t.n }

// Quantile estimates the q-quantile, q in (0, 1).
func (t *TDigest) Quantile(q float64) (float64, error) {
	if q <= 0 || q >= 1 {
		return 0, ErrInvalidQuantile
	}
	if t.n == 0 {
		return 0, ErrEmpty
	}
	return t.digest.Quantile(q), nil
}

func (t *TDigest) Merge(other *TDigest) {
	if other == nil || other.n == 0 {
		return
	}
	t.init()
	t.digest.Merge(other.digest)
	t.n += other.n
}

// DDSketch estimates quantiles with a relative-error guarantee.
// The zero value is empty and ready to use.
type DDSketch struct {
	sketch *ddsketch.DDSketch
}

func NewDDSketch() *DDSketch {
	d := &DDSketch{}
	d.init()
	return d
}

func (d *DDSketch) init() {
	if d.sketch != nil {
		return
	}
	s, err := ddsketch.NewDefaultDDSketch(DDSketchRelativeAccuracy)
	if err != nil {
		// Only reachable with an invalid accuracy constant.
		panic(fmt.Errorf("ddsketch: %w", err))
	}
	d.sketch = s
}

// Add records x. Magnitudes beyond the sketch's indexable range, including
// infinities, are rejected.
func (d *DDSketch) Add(x float64) error {
	d.init()
	return d.sketch.Add(x)
}

func (d *DDSketch) Len() uint64 {
	if d.sketch == nil {
		return 0
	}
	return uint64(d.sketch.GetCount())
}

// Quantile estimates the q-quantile, q in (0, 1).
func (d *DDSketch) Quantile(q float64) (float64, error) {
	if q <= 0 || q >= 1 {
		return 0, ErrInvalidQuantile
	}
	if d.sketch == nil || d.sketch.IsEmpty() {
		return 0, ErrEmpty
	}
	return d.sketch.GetValueAtQuantile(q)
}

func (d *DDSketch) Merge(other *DDSketch) {
	if other == nil || other.sketch == nil {
		return
	}
	d.init()
	if err := d.sketch.MergeWith(other.sketch); err != nil {
		panic(fmt.Errorf("%w: %v", ErrSketchMismatch, err))
	}
}
