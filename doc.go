// Package treecorr provides the configuration and bookkeeping layer for
// two-point correlation functions of count, scalar and shear fields.
//
// # Overview
//
// A two-point correlation function is measured in bins of separation r.
// treecorr bins are equally spaced in ln(r) and are described by four
// mutually constraining numbers:
//
//   - nbins    - how many bins to use
//   - bin_size - the width of each bin in ln(r)
//   - min_sep  - the left edge of the first bin
//   - max_sep  - the right edge of the last bin
//
// Exactly three must be supplied. The fourth is derived:
//
//	nbins    = ⌈ln(max_sep/min_sep) / bin_size⌉
//	bin_size = ln(max_sep/min_sep) / nbins
//	max_sep  = min_sep · e^(nbins·bin_size)
//	min_sep  = max_sep · e^(-nbins·bin_size)
//
// When nbins is derived it is rounded up and bin_size is kept as given, so
// the last bin may extend slightly past max_sep.
//
// # Correlation kinds
//
//   - GG - shear-shear      (complex)
//   - NN - count-count      (real)
//   - KK - scalar-scalar    (real)
//   - NG - count-shear      (complex)
//   - NK - count-scalar     (real)
//   - KG - scalar-shear     (complex)
//
// Kinds involving a spin-2 shear field accumulate complex128 values; the
// rest accumulate float64. A single generic type, Correlation[T], serves
// all six.
//
// # Quick Start
//
//	cfg := treecorr.Config{
//	    MinSep:   treecorr.Ptr(1.0),
//	    MaxSep:   treecorr.Ptr(100.0),
//	    NBins:    treecorr.Ptr(10),
//	    SepUnits: "arcmin",
//	}
//
//	gg, err := treecorr.NewGG(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b := gg.Binning()
//	fmt.Printf("bin_size = %.4f, min_sep = %.3g rad\n", b.BinSize, b.MinSep)
//
// Overrides are merged over the base configuration, later ones winning:
//
//	gg, err := treecorr.NewGG(cfg, logger, treecorr.Config{NBins: treecorr.Ptr(20)})
//
// # Units
//
// Separations are given in sep_units (radians, hours, degrees, arcmin or
// arcsec) and stored in radians. In Cartesian mode, marked by x_col,
// sep_units may be omitted and separations are used as given.
//
// # Pair counting
//
// Process and Write are extension points. They validate their arguments
// and log a record, but do not yet count pairs or produce output. Tests can
// hold any future implementation to the same contract with AssertStubs.
//
// # Testing
//
//	func TestMyBinning(t *testing.T) {
//	    nn, _ := treecorr.NewNN(cfg, logger)
//
//	    treecorr.AssertRoundTrip(t, nn.Binning(), treecorr.DefaultAssertionConfig())
//	    treecorr.AssertStubs(t, nn, cat, nil, "out.dat")
//	}
package treecorr
