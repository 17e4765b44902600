package treecorr

import (
	"fmt"
	"log/slog"
	"math"
)

// BinningSpec is the resolved geometry of a logarithmic binning scheme.
//
// Bins are equally spaced in ln(r). The left edge of bin i is
// MinSep·exp(i·BinSize). When NBins was derived from the other three values
// it is rounded up, so the right edge of the last bin may lie slightly
// beyond MaxSep.
type BinningSpec struct {
	MinSep  float64 `yaml:"min_sep"`  // radians
	MaxSep  float64 `yaml:"max_sep"`  // radians
	BinSize float64 `yaml:"bin_size"` // width in ln(r)
	NBins   int     `yaml:"nbins"`

	SepUnits     AngleUnit `yaml:"sep_units_factor"` // radians per user unit
	SepUnitsName string    `yaml:"sep_units,omitempty"`
	BinSlop      float64   `yaml:"bin_slop"`
}

// ResolveBinning derives the missing one of {nbins, bin_size, min_sep,
// max_sep} from the three supplied in cfg and converts the separations to
// radians.
//
// Exactly three of the four must be present. A sep_units entry is required
// unless x_col marks Cartesian mode, in which case separations are used as
// given. On success one Info record summarizing the result is logged.
func ResolveBinning(cfg Config, logger *slog.Logger) (BinningSpec, error) {
	if logger == nil {
		logger = discardLogger()
	}

	if !cfg.Has(KeyXCol) && !cfg.Has(KeySepUnits) {
		return BinningSpec{}, &ConfigError{
			Key:    KeySepUnits,
			Reason: "sep_units is required if not using x_col,y_col",
		}
	}

	spec := BinningSpec{
		SepUnits: Radians,
		BinSlop:  cfg.BinSlopValue(),
	}
	if cfg.Has(KeySepUnits) {
		name, unit, err := lookupAngleUnit(cfg.SepUnits)
		if err != nil {
			return BinningSpec{}, err
		}
		spec.SepUnits = unit
		spec.SepUnitsName = name
	}

	if err := checkBinningKeys(cfg); err != nil {
		return BinningSpec{}, err
	}
	if err := cfg.Validate(); err != nil {
		return BinningSpec{}, err
	}
	if err := checkBounds(cfg); err != nil {
		return BinningSpec{}, err
	}

	switch {
	case !cfg.Has(KeyNBins):
		spec.MinSep = spec.SepUnits.ToRadians(*cfg.MinSep)
		spec.MaxSep = spec.SepUnits.ToRadians(*cfg.MaxSep)
		if err := checkSepOrder(spec.MinSep, spec.MaxSep); err != nil {
			return BinningSpec{}, err
		}
		spec.BinSize = *cfg.BinSize
		n := math.Ceil(math.Log(spec.MaxSep/spec.MinSep) / spec.BinSize)
		if math.IsNaN(n) || n < 1 || n > maxBins {
			return BinningSpec{}, &ValueError{
				Key:    KeyNBins,
				Value:  n,
				Reason: fmt.Sprintf("derived bin count must be between 1 and %d", maxBins),
			}
		}
		spec.NBins = int(n)

	case !cfg.Has(KeyBinSize):
		spec.MinSep = spec.SepUnits.ToRadians(*cfg.MinSep)
		spec.MaxSep = spec.SepUnits.ToRadians(*cfg.MaxSep)
		if err := checkSepOrder(spec.MinSep, spec.MaxSep); err != nil {
			return BinningSpec{}, err
		}
		spec.NBins = *cfg.NBins
		spec.BinSize = math.Log(spec.MaxSep/spec.MinSep) / float64(spec.NBins)
		if math.IsInf(spec.BinSize, 0) {
			return BinningSpec{}, &ValueError{
				Key:    KeyBinSize,
				Value:  spec.BinSize,
				Reason: "max_sep/min_sep overflows; derived bin size is infinite",
			}
		}

	case !cfg.Has(KeyMaxSep):
		spec.MinSep = spec.SepUnits.ToRadians(*cfg.MinSep)
		spec.NBins = *cfg.NBins
		spec.BinSize = *cfg.BinSize
		spec.MaxSep = spec.MinSep * math.Exp(float64(spec.NBins)*spec.BinSize)
		if err := checkDerivedSep(KeyMaxSep, spec.MaxSep); err != nil {
			return BinningSpec{}, err
		}

	default:
		spec.MaxSep = spec.SepUnits.ToRadians(*cfg.MaxSep)
		spec.NBins = *cfg.NBins
		spec.BinSize = *cfg.BinSize
		spec.MinSep = spec.MaxSep * math.Exp(-float64(spec.NBins)*spec.BinSize)
		if err := checkDerivedSep(KeyMinSep, spec.MinSep); err != nil {
			return BinningSpec{}, err
		}
	}

	logger.Info("resolved binning",
		"nbins", spec.NBins,
		"min_sep", spec.MinSep,
		"max_sep", spec.MaxSep,
		"bin_size", spec.BinSize,
		"units", "radians",
	)
	return spec, nil
}

// checkBinningKeys enforces that exactly three of the four binning
// parameters are present. Missing keys are reported in the same order the
// resolution branches consult them.
func checkBinningKeys(cfg Config) error {
	present := 0
	for _, k := range []string{KeyNBins, KeyBinSize, KeyMinSep, KeyMaxSep} {
		if cfg.Has(k) {
			present++
		}
	}
	if present == 4 {
		return &ConfigError{
			Key:    KeyMinSep,
			Reason: "only 3 of min_sep, max_sep, bin_size, nbins are allowed",
		}
	}

	switch {
	case !cfg.Has(KeyNBins):
		for _, k := range []string{KeyMaxSep, KeyMinSep, KeyBinSize} {
			if !cfg.Has(k) {
				return missingKey(k)
			}
		}
	case !cfg.Has(KeyBinSize):
		for _, k := range []string{KeyMaxSep, KeyMinSep} {
			if !cfg.Has(k) {
				return missingKey(k)
			}
		}
	case !cfg.Has(KeyMaxSep):
		if !cfg.Has(KeyMinSep) {
			return missingKey(KeyMinSep)
		}
	}
	return nil
}

// maxBins caps the bin count so it fits a 32-bit int.
const maxBins = math.MaxInt32

// checkBounds rejects infinite inputs and bin counts above maxBins. NaN and -Inf are already refused by the positivity rules in
// Validate.
func checkBounds(cfg Config) error {
	if cfg.NBins != nil && *cfg.NBins > maxBins {
		return &ValueError{
			Key:    KeyNBins,
			Value:  *cfg.NBins,
			Reason: fmt.Sprintf("must be at most %d", maxBins),
		}
	}
	for _, f := range []struct {
		key string
		v   *float64
	}{
		{KeyMinSep, cfg.MinSep},
		{KeyMaxSep, cfg.MaxSep},
		{KeyBinSize, cfg.BinSize},
	} {
		if f.v != nil && math.IsInf(*f.v, 0) {
			return &ValueError{Key: f.key, Value: *f.v, Reason: "must be finite"}
		}
	}
	return nil
}

// checkDerivedSep rejects a derived separation that overflowed to +Inf or
// underflowed to zero.
func checkDerivedSep(key string, v float64) error {
	if math.IsInf(v, 0) || math.IsNaN(v) || v <= 0 {
		return &ValueError{
			Key:    key,
			Value:  v,
			Reason: "derived separation is out of floating-point range; reduce nbins or bin_size",
		}
	}
	return nil
}

func checkSepOrder(minSep, maxSep float64) error {
	if maxSep <= minSep {
		return &ValueError{
			Key:    KeyMaxSep,
			Value:  maxSep,
			Reason: fmt.Sprintf("must be greater than min_sep (%g radians)", minSep),
		}
	}
	return nil
}

// LogMinSep returns ln(MinSep).
func (b BinningSpec) LogMinSep() float64 {
	return math.Log(b.MinSep)
}

// LogMaxSep returns ln(MaxSep).
func (b BinningSpec) LogMaxSep() float64 {
	return math.Log(b.MaxSep)
}

// Edges returns the NBins+1 bin edges in radians.
func (b BinningSpec) Edges() []float64 {
	edges := make([]float64, b.NBins+1)
	for i := range edges {
		edges[i] = b.MinSep * math.Exp(float64(i)*b.BinSize)
	}
	return edges
}

// Centers returns the logarithmic center of each bin in radians.
func (b BinningSpec) Centers() []float64 {
	centers := make([]float64, b.NBins)
	for i := range centers {
		centers[i] = b.MinSep * math.Exp((float64(i)+0.5)*b.BinSize)
	}
	return centers
}

// Index returns the bin containing separation r (radians).
// The second result is false when r falls outside every bin.
func (b BinningSpec) Index(r float64) (int, bool) {
	if r < b.MinSep || b.BinSize <= 0 {
		return 0, false
	}
	k := int(math.Floor((math.Log(r) - b.LogMinSep()) / b.BinSize))
	if k < 0 || k >= b.NBins {
		return 0, false
	}
	return k, true
}
