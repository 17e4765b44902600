package treecorr

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
)

// Value is the numeric domain of a correlation's accumulator cells.
type Value interface {
	~float64 | ~complex128
}

// Binned is satisfied by every Correlation regardless of its numeric domain.
// Reference correlations passed to the Write family are accepted through it.
type Binned interface {
	Kind() Kind
	Binning() BinningSpec
}

// Correlation stores the binning and accumulated results of one two-point
// correlation function. Shear kinds use complex128 cells, the rest float64.
//
// A Correlation is not safe for concurrent use.
type Correlation[T Value] struct {
	kind    Kind
	config  Config
	binning BinningSpec
	data    []T

	logger *slog.Logger
	closer io.Closer
}

// New builds a correlation of the given kind. Overrides are merged over cfg
// in order, later ones winning. When logger is nil one is built from the
// verbose and log_file settings.
func New[T Value](kind Kind, cfg Config, logger *slog.Logger, overrides ...Config) (*Correlation[T], error) {
	if !kind.Valid() {
		return nil, &ConfigError{Key: "kind", Reason: fmt.Sprintf("invalid correlation kind %d", int(kind))}
	}
	if isComplex[T]() != kind.IsComplex() {
		return nil, fmt.Errorf("%w: %s correlations need %s cells, got %s",
			ErrKindMismatch, kind, domainName(kind.IsComplex()), reflect.TypeFor[T]())
	}

	for _, o := range overrides {
		cfg = cfg.Merge(o)
	}

	var closer io.Closer
	if logger == nil {
		l, c, err := NewLoggerFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		logger, closer = l, c
	}

	binning, err := ResolveBinning(cfg, logger)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	return &Correlation[T]{
		kind:    kind,
		config:  cfg,
		binning: binning,
		data:    make([]T, binning.NBins),
		logger:  logger.With("kind", kind.String()),
		closer:  closer,
	}, nil
}

// NewGG builds a shear-shear correlation.
func NewGG(cfg Config, logger *slog.Logger, overrides ...Config) (*Correlation[complex128], error) {
	return New[complex128](GG, cfg, logger, overrides...)
}

// NewNN builds a count-count correlation.
func NewNN(cfg Config, logger *slog.Logger, overrides ...Config) (*Correlation[float64], error) {
	return New[float64](NN, cfg, logger, overrides...)
}

// NewKK builds a scalar-scalar correlation.
func NewKK(cfg Config, logger *slog.Logger, overrides ...Config) (*Correlation[float64], error) {
	return New[float64](KK, cfg, logger, overrides...)
}

// NewNG builds a count-shear correlation.
func NewNG(cfg Config, logger *slog.Logger, overrides ...Config) (*Correlation[complex128], error) {
	return New[complex128](NG, cfg, logger, overrides...)
}

// NewNK builds a count-scalar correlation.
func NewNK(cfg Config, logger *slog.Logger, overrides ...Config) (*Correlation[float64], error) {
	return New[float64](NK, cfg, logger, overrides...)
}

// NewKG builds a scalar-shear correlation.
func NewKG(cfg Config, logger *slog.Logger, overrides ...Config) (*Correlation[complex128], error) {
	return New[complex128](KG, cfg, logger, overrides...)
}

func isComplex[T Value]() bool {
	return reflect.TypeFor[T]().Kind() == reflect.Complex128
}

func domainName(cplx bool) string {
	if cplx {
		return "complex"
	}
	return "real"
}

// Kind returns the correlation kind.
func (c *Correlation[T]) Kind() Kind { return c.kind }

// Binning returns the resolved binning.
func (c *Correlation[T]) Binning() BinningSpec { return c.binning }

// Config returns the merged configuration the correlation was built from.
func (c *Correlation[T]) Config() Config { return c.config }

// Len returns the number of bins.
func (c *Correlation[T]) Len() int { return len(c.data) }

// Data returns a copy of the accumulator cells.
func (c *Correlation[T]) Data() []T { return slices.Clone(c.data) }

// Clear zeroes every accumulator cell. The binning is unchanged.
func (c *Correlation[T]) Clear() {
	clear(c.data)
}

// Close releases the log file opened when New built its own logger.
func (c *Correlation[T]) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

// Process accumulates the pairs between cat1 and cat2 (or within cat1 when
// cat2 is nil for GG, NN and KK). Cross kinds require both catalogs.
//
// Pair counting is not implemented yet: Process validates its arguments,
// logs, and leaves the accumulators untouched.
func (c *Correlation[T]) Process(cat1, cat2 *Catalog) error {
	if cat1 == nil {
		return &ValueError{Key: "cat1", Value: nil, Reason: "catalog is required"}
	}
	if c.kind.IsCross() && cat2 == nil {
		return &ValueError{Key: "cat2", Value: nil, Reason: c.kind.String() + " correlations need a second catalog"}
	}

	attrs := []any{"cat1", cat1.label(), "n1", cat1.Len()}
	if cat2 != nil {
		attrs = append(attrs, "cat2", cat2.label(), "n2", cat2.Len())
	}
	c.logger.Info("process correlations: not implemented", attrs...)
	return nil
}

// Write outputs the correlation to path. Reference correlations for bias
// correction are supplied through options (WithRR, WithDR, WithRD for NN,
// WithRG for NG, WithRK for NK).
//
// No output format exists yet: Write validates the references and logs.
func (c *Correlation[T]) Write(path string, opts ...WriteOption) error {
	refs, err := c.collectRefs(opts, allowedRefs[c.kind]...)
	if err != nil {
		return err
	}
	c.logger.Info("write correlations: not implemented", append([]any{"path", path}, refs.attrs()...)...)
	return nil
}

// WriteMapSq outputs the aperture mass variance derived from a GG
// correlation.
func (c *Correlation[T]) WriteMapSq(path string) error {
	if err := c.requireKind("WriteMapSq", GG); err != nil {
		return err
	}
	c.logger.Info("write Map^2: not implemented", "path", path)
	return nil
}

// WriteNMap outputs the NMap statistic derived from an NG correlation.
// WithRG supplies the random-shear reference.
func (c *Correlation[T]) WriteNMap(path string, opts ...WriteOption) error {
	if err := c.requireKind("WriteNMap", NG); err != nil {
		return err
	}
	refs, err := c.collectRefs(opts, refRG)
	if err != nil {
		return err
	}
	c.logger.Info("write NMap: not implemented", append([]any{"path", path}, refs.attrs()...)...)
	return nil
}

// WriteNorm outputs the normalized NMap statistic, combining this NG
// correlation with gg, nn and rr. WithNR and WithRG supply the optional
// cross references.
func (c *Correlation[T]) WriteNorm(path string, gg, nn, rr Binned, opts ...WriteOption) error {
	if err := c.requireKind("WriteNorm", NG); err != nil {
		return err
	}
	required := []struct {
		name string
		ref  Binned
		want Kind
	}{
		{"gg", gg, GG},
		{"nn", nn, NN},
		{"rr", rr, NN},
	}
	for _, r := range required {
		if err := c.checkRef(r.name, r.ref, r.want); err != nil {
			return err
		}
	}
	refs, err := c.collectRefs(opts, refNR, refRG)
	if err != nil {
		return err
	}
	c.logger.Info("write Norm: not implemented", append([]any{"path", path}, refs.attrs()...)...)
	return nil
}

func (c *Correlation[T]) requireKind(op string, want Kind) error {
	if c.kind != want {
		return fmt.Errorf("%w: %s is only defined for %s correlations, not %s", ErrKindMismatch, op, want, c.kind)
	}
	return nil
}

func (c *Correlation[T]) checkRef(name string, ref Binned, want Kind) error {
	if isNilRef(ref) {
		return &ValueError{Key: name, Value: nil, Reason: "reference correlation is required"}
	}
	if ref.Kind() != want {
		return fmt.Errorf("%w: %s must be a %s correlation, got %s", ErrKindMismatch, name, want, ref.Kind())
	}
	if n := ref.Binning().NBins; n != c.binning.NBins {
		return &ValueError{Key: name, Value: n, Reason: fmt.Sprintf("nbins must match %d", c.binning.NBins)}
	}
	return nil
}

func (c *Correlation[T]) collectRefs(opts []WriteOption, allowed ...refSlot) (writeRefs, error) {
	refs := writeRefs{}
	for _, opt := range opts {
		opt(&refs)
	}
	for _, slot := range refs.order {
		if !slices.Contains(allowed, slot) {
			return writeRefs{}, fmt.Errorf("%w: %s reference is not used by %s correlations",
				ErrKindMismatch, slot.name(), c.kind)
		}
		if err := c.checkRef(slot.name(), refs.set[slot], slot.kind()); err != nil {
			return writeRefs{}, err
		}
	}
	return refs, nil
}

func isNilRef(ref Binned) bool {
	if ref == nil {
		return true
	}
	rv := reflect.ValueOf(ref)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
