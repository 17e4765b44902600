package treecorr

import (
	"fmt"
	"math"
	"testing"
)

// AssertionConfig contains tolerances for binning properties.
type AssertionConfig struct {
	// Relative tolerance when comparing separations
	RelTol float64

	// Absolute tolerance when comparing bin sizes
	AbsTol float64
}

// DefaultAssertionConfig returns tolerances suited to float64 log/exp.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		RelTol: 1e-9,
		AbsTol: 1e-12,
	}
}

func (cfg AssertionConfig) closeRel(a, b float64) bool {
	return math.Abs(a-b) <= cfg.RelTol*math.Max(math.Abs(a), math.Abs(b))
}

// AssertRoundTrip verifies that each of min_sep, max_sep and bin_size is
// reproduced from the other three by the complementary formula.
//
// This holds exactly when nbins was supplied. When nbins was derived it is
// rounded up and only AssertCovers applies.
//
// Mathematical property:
//
//	bin_size = ln(max_sep/min_sep) / nbins
func AssertRoundTrip(t testing.TB, b BinningSpec, cfg AssertionConfig) {
	t.Helper()

	n := float64(b.NBins)
	var failures []string

	if got := b.MaxSep * math.Exp(-n*b.BinSize); !cfg.closeRel(got, b.MinSep) {
		failures = append(failures, fmt.Sprintf("  min_sep: %.12g, re-derived %.12g", b.MinSep, got))
	}
	if got := b.MinSep * math.Exp(n*b.BinSize); !cfg.closeRel(got, b.MaxSep) {
		failures = append(failures, fmt.Sprintf("  max_sep: %.12g, re-derived %.12g", b.MaxSep, got))
	}
	if got := math.Log(b.MaxSep/b.MinSep) / n; math.Abs(got-b.BinSize) > cfg.AbsTol {
		failures = append(failures, fmt.Sprintf("  bin_size: %.12g, re-derived %.12g", b.BinSize, got))
	}

	if len(failures) > 0 {
		t.Errorf("Binning does not round-trip:\n%s\nnbins=%d", failures, b.NBins)
	}
}

// AssertCovers verifies that nbins bins of width bin_size starting at
// min_sep reach max_sep, and that one bin fewer would not.
//
// Mathematical property:
//
//	min_sep·e^((nbins-1)·bin_size) < max_sep ≤ min_sep·e^(nbins·bin_size)
func AssertCovers(t testing.TB, b BinningSpec, cfg AssertionConfig) {
	t.Helper()

	if b.NBins < 1 {
		t.Fatalf("nbins = %d, want at least 1", b.NBins)
	}

	top := b.MinSep * math.Exp(float64(b.NBins)*b.BinSize)
	if top < b.MaxSep && !cfg.closeRel(top, b.MaxSep) {
		t.Errorf("Bins stop short: last edge %.12g < max_sep %.12g", top, b.MaxSep)
	}

	below := b.MinSep * math.Exp(float64(b.NBins-1)*b.BinSize)
	if below >= b.MaxSep && !cfg.closeRel(below, b.MaxSep) {
		t.Errorf("Too many bins: edge %d = %.12g already reaches max_sep %.12g",
			b.NBins-1, below, b.MaxSep)
	}
}

// AssertNoOp runs op against c and verifies it returns nil and leaves every
// accumulator cell unchanged.
//
// Process and Write are measured against this while they remain stubs.
func AssertNoOp[T Value](t testing.TB, c *Correlation[T], op func() error) {
	t.Helper()

	before := c.Data()
	binning := c.Binning()

	if err := op(); err != nil {
		t.Fatalf("%s operation failed: %v", c.Kind(), err)
	}

	after := c.Data()
	if len(after) != len(before) {
		t.Fatalf("%s data length changed: %d → %d", c.Kind(), len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("%s data[%d] changed: %v → %v", c.Kind(), i, before[i], after[i])
		}
	}
	if c.Binning() != binning {
		t.Errorf("%s binning changed: %+v → %+v", c.Kind(), binning, c.Binning())
	}
}

// AssertCleared verifies every accumulator cell is zero and the binning
// equals before.
func AssertCleared[T Value](t testing.TB, c *Correlation[T], before BinningSpec) {
	t.Helper()

	var zero T
	for i, v := range c.Data() {
		if v != zero {
			t.Errorf("%s data[%d] = %v after Clear, want 0", c.Kind(), i, v)
		}
	}
	if c.Len() != before.NBins {
		t.Errorf("%s has %d cells, want nbins = %d", c.Kind(), c.Len(), before.NBins)
	}
	if c.Binning() != before {
		t.Errorf("%s binning changed by Clear: %+v → %+v", c.Kind(), before, c.Binning())
	}
}

// AssertStubs runs Process and Write through AssertNoOp.
func AssertStubs[T Value](t testing.TB, c *Correlation[T], cat1, cat2 *Catalog, path string, opts ...WriteOption) {
	t.Helper()

	AssertNoOp(t, c, func() error { return c.Process(cat1, cat2) })
	AssertNoOp(t, c, func() error { return c.Write(path, opts...) })
}
