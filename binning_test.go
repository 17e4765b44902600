package treecorr

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func radiansConfig() Config {
	return Config{SepUnits: "radians"}
}

func TestResolveBinning_DeriveBinSize(t *testing.T) {
	cfg := radiansConfig()
	cfg.MinSep = Ptr(1.0)
	cfg.MaxSep = Ptr(100.0)
	cfg.NBins = Ptr(10)

	b, err := ResolveBinning(cfg, nil)
	if err != nil {
		t.Fatalf("ResolveBinning failed: %v", err)
	}

	want := math.Log(100) / 10
	if math.Abs(b.BinSize-want) > 1e-12 {
		t.Errorf("bin_size = %.6f, want %.6f", b.BinSize, want)
	}
	if math.Abs(b.BinSize-0.4605) > 1e-4 {
		t.Errorf("bin_size = %.6f, want ≈ 0.4605", b.BinSize)
	}
	if b.NBins != 10 || b.MinSep != 1 || b.MaxSep != 100 {
		t.Errorf("supplied values changed: %+v", b)
	}

	AssertRoundTrip(t, b, DefaultAssertionConfig())
}

func TestResolveBinning_DeriveNBins(t *testing.T) {
	cfg := radiansConfig()
	cfg.MinSep = Ptr(1.0)
	cfg.MaxSep = Ptr(100.0)
	cfg.BinSize = Ptr(0.5)

	b, err := ResolveBinning(cfg, nil)
	if err != nil {
		t.Fatalf("ResolveBinning failed: %v", err)
	}

	// ceil(ln(100)/0.5) = ceil(9.21) = 10
	if b.NBins != 10 {
		t.Errorf("nbins = %d, want 10", b.NBins)
	}
	// bin_size is kept as given, not renormalized
	if b.BinSize != 0.5 {
		t.Errorf("bin_size = %v, want 0.5 unchanged", b.BinSize)
	}
	if b.MaxSep != 100 {
		t.Errorf("max_sep = %v, want 100 unchanged", b.MaxSep)
	}

	AssertCovers(t, b, DefaultAssertionConfig())
}

func TestResolveBinning_DeriveMaxSep(t *testing.T) {
	cfg := radiansConfig()
	cfg.MinSep = Ptr(1.0)
	cfg.NBins = Ptr(10)
	cfg.BinSize = Ptr(0.4605)

	b, err := ResolveBinning(cfg, nil)
	if err != nil {
		t.Fatalf("ResolveBinning failed: %v", err)
	}

	if math.Abs(b.MaxSep-100) > 0.05 {
		t.Errorf("max_sep = %.4f, want ≈ 100", b.MaxSep)
	}
	if want := math.Exp(4.605); math.Abs(b.MaxSep-want) > 1e-9 {
		t.Errorf("max_sep = %.12f, want exactly %.12f", b.MaxSep, want)
	}

	AssertRoundTrip(t, b, DefaultAssertionConfig())
}

func TestResolveBinning_DeriveMinSep(t *testing.T) {
	cfg := radiansConfig()
	cfg.MaxSep = Ptr(100.0)
	cfg.NBins = Ptr(10)
	cfg.BinSize = Ptr(0.4605)

	b, err := ResolveBinning(cfg, nil)
	if err != nil {
		t.Fatalf("ResolveBinning failed: %v", err)
	}

	if math.Abs(b.MinSep-1) > 1e-3 {
		t.Errorf("min_sep = %.6f, want ≈ 1", b.MinSep)
	}

	AssertRoundTrip(t, b, DefaultAssertionConfig())
}

func TestResolveBinning_UnitConversion(t *testing.T) {
	tests := []struct {
		units string
		unit  AngleUnit
		name  string
	}{
		{"radians", Radians, "radians"},
		{"degrees", Degrees, "degrees"},
		{"arcmin", Arcmin, "arcmin"},
		{"arcsec", Arcsec, "arcsec"},
		{"hours", Hours, "hours"},
	}

	for _, tt := range tests {
		t.Run(tt.units, func(t *testing.T) {
			cfg := Config{
				SepUnits: tt.units,
				MinSep:   Ptr(1.0),
				MaxSep:   Ptr(100.0),
				NBins:    Ptr(10),
			}
			b, err := ResolveBinning(cfg, nil)
			require.NoError(t, err)

			assert.InDelta(t, float64(tt.unit), b.MinSep, 1e-15)
			assert.InDelta(t, 100*float64(tt.unit), b.MaxSep, 1e-12)
			// bin_size is unit-free
			assert.InDelta(t, math.Log(100)/10, b.BinSize, 1e-12)
			assert.Equal(t, tt.unit, b.SepUnits)
			assert.Equal(t, tt.name, b.SepUnitsName)
		})
	}
}

func TestResolveBinning_BinSizeAndNBinsAreUnitFree(t *testing.T) {
	cfg := Config{
		SepUnits: "arcmin",
		MinSep:   Ptr(2.0),
		NBins:    Ptr(8),
		BinSize:  Ptr(0.25),
	}

	b, err := ResolveBinning(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, b.NBins)
	assert.Equal(t, 0.25, b.BinSize)
	assert.InDelta(t, 2*float64(Arcmin)*math.Exp(2), b.MaxSep, 1e-15)
	assert.InDelta(t, 2*math.Exp(2), Arcmin.FromRadians(b.MaxSep), 1e-9)
}

func TestResolveBinning_CartesianMode(t *testing.T) {
	cfg := Config{
		XCol:   "x",
		YCol:   "y",
		MinSep: Ptr(5.0),
		MaxSep: Ptr(500.0),
		NBins:  Ptr(20),
	}

	b, err := ResolveBinning(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 5.0, b.MinSep)
	assert.Equal(t, 500.0, b.MaxSep)
	assert.Equal(t, Radians, b.SepUnits)
	assert.Empty(t, b.SepUnitsName)
}

func TestResolveBinning_BinSlop(t *testing.T) {
	cfg := radiansConfig()
	cfg.MinSep = Ptr(1.0)
	cfg.MaxSep = Ptr(10.0)
	cfg.NBins = Ptr(5)

	b, err := ResolveBinning(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBinSlop, b.BinSlop)

	cfg.BinSlop = Ptr(0.1)
	b, err = ResolveBinning(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.1, b.BinSlop)
}

func TestResolveBinning_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantKey string
	}{
		{
			name:    "no sep_units and no x_col",
			cfg:     Config{MinSep: Ptr(1.0), MaxSep: Ptr(100.0), NBins: Ptr(10)},
			wantKey: KeySepUnits,
		},
		{
			name:    "unknown unit",
			cfg:     Config{SepUnits: "furlongs", MinSep: Ptr(1.0), MaxSep: Ptr(100.0), NBins: Ptr(10)},
			wantKey: KeySepUnits,
		},
		{
			name:    "only min and max",
			cfg:     Config{SepUnits: "radians", MinSep: Ptr(1.0), MaxSep: Ptr(100.0)},
			wantKey: KeyBinSize,
		},
		{
			name:    "only nbins and bin_size",
			cfg:     Config{SepUnits: "radians", NBins: Ptr(10), BinSize: Ptr(0.1)},
			wantKey: KeyMinSep,
		},
		{
			name:    "only min and nbins",
			cfg:     Config{SepUnits: "radians", MinSep: Ptr(1.0), NBins: Ptr(10)},
			wantKey: KeyMaxSep,
		},
		{
			name:    "only max and bin_size",
			cfg:     Config{SepUnits: "radians", MaxSep: Ptr(1.0), BinSize: Ptr(0.1)},
			wantKey: KeyMinSep,
		},
		{
			name:    "nothing",
			cfg:     Config{SepUnits: "radians"},
			wantKey: KeyMaxSep,
		},
		{
			name: "all four",
			cfg: Config{
				SepUnits: "radians",
				MinSep:   Ptr(1.0),
				MaxSep:   Ptr(100.0),
				NBins:    Ptr(10),
				BinSize:  Ptr(0.4605),
			},
			wantKey: KeyMinSep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveBinning(tt.cfg, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)

			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantKey, cerr.Key)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestResolveBinning_ValueErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantKey string
	}{
		{"zero min_sep", Config{SepUnits: "rad", MinSep: Ptr(0.0), MaxSep: Ptr(100.0), NBins: Ptr(10)}, KeyMinSep},
		{"negative max_sep", Config{SepUnits: "rad", MaxSep: Ptr(-1.0), NBins: Ptr(10), BinSize: Ptr(0.1)}, KeyMaxSep},
		{"zero nbins", Config{SepUnits: "rad", MinSep: Ptr(1.0), MaxSep: Ptr(100.0), NBins: Ptr(0)}, KeyNBins},
		{"negative bin_size", Config{SepUnits: "rad", MinSep: Ptr(1.0), MaxSep: Ptr(100.0), BinSize: Ptr(-0.5)}, KeyBinSize},
		{"max below min", Config{SepUnits: "rad", MinSep: Ptr(10.0), MaxSep: Ptr(1.0), NBins: Ptr(10)}, KeyMaxSep},
		{"max equals min", Config{SepUnits: "rad", MinSep: Ptr(1.0), MaxSep: Ptr(1.0), BinSize: Ptr(0.1)}, KeyMaxSep},
		{"NaN min_sep", Config{SepUnits: "rad", MinSep: Ptr(math.NaN()), MaxSep: Ptr(1.0), NBins: Ptr(3)}, KeyMinSep},
		{"infinite max_sep", Config{SepUnits: "rad", MinSep: Ptr(1.0), MaxSep: Ptr(math.Inf(1)), BinSize: Ptr(0.1)}, KeyMaxSep},
		{"infinite bin_size", Config{SepUnits: "rad", MinSep: Ptr(1.0), NBins: Ptr(10), BinSize: Ptr(math.Inf(1))}, KeyBinSize},
		{"nbins above cap", Config{SepUnits: "rad", MinSep: Ptr(1.0), MaxSep: Ptr(100.0), NBins: Ptr(maxBins + 1)}, KeyNBins},
		{"tiny bin_size", Config{SepUnits: "rad", MinSep: Ptr(1.0), MaxSep: Ptr(100.0), BinSize: Ptr(1e-300)}, KeyNBins},
		{"separation ratio overflows", Config{SepUnits: "rad", MinSep: Ptr(1e-300), MaxSep: Ptr(1e300), NBins: Ptr(10)}, KeyBinSize},
		{"derived max_sep overflows", Config{SepUnits: "rad", MinSep: Ptr(1.0), NBins: Ptr(1000), BinSize: Ptr(10.0)}, KeyMaxSep},
		{"derived min_sep underflows", Config{SepUnits: "rad", MaxSep: Ptr(1.0), NBins: Ptr(1000), BinSize: Ptr(10.0)}, KeyMinSep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveBinning(tt.cfg, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValue)
			assert.NotErrorIs(t, err, ErrConfiguration)

			var verr *ValueError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantKey, verr.Key)
		})
	}
}

func TestResolveBinning_LogsOneRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	cfg := radiansConfig()
	cfg.MinSep = Ptr(1.0)
	cfg.MaxSep = Ptr(100.0)
	cfg.NBins = Ptr(10)

	_, err := ResolveBinning(cfg, logger)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"level":"INFO"`)
	assert.Contains(t, lines[0], `"msg":"resolved binning"`)
	assert.Contains(t, lines[0], `"nbins":10`)
}

func TestResolveBinning_NoLogOnError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	_, err := ResolveBinning(Config{SepUnits: "radians"}, logger)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

// TestResolveBinning_RoundTripProperty checks that for random valid inputs
// the derived fourth parameter reproduces the supplied three.
func TestResolveBinning_RoundTripProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tol := DefaultAssertionConfig()

	for i := 0; i < 200; i++ {
		minSep := 1e-3 + rng.Float64()*10
		maxSep := minSep * (1.5 + rng.Float64()*1e4)
		nbins := 1 + rng.Intn(50)
		binSize := 0.01 + rng.Float64()

		cases := map[string]Config{
			"no bin_size": {SepUnits: "deg", MinSep: Ptr(minSep), MaxSep: Ptr(maxSep), NBins: Ptr(nbins)},
			"no max_sep":  {SepUnits: "deg", MinSep: Ptr(minSep), NBins: Ptr(nbins), BinSize: Ptr(binSize)},
			"no min_sep":  {SepUnits: "deg", MaxSep: Ptr(maxSep), NBins: Ptr(nbins), BinSize: Ptr(binSize)},
		}
		for name, cfg := range cases {
			b, err := ResolveBinning(cfg, nil)
			if err != nil {
				t.Fatalf("%s: ResolveBinning(%+v) failed: %v", name, cfg, err)
			}
			AssertRoundTrip(t, b, tol)
		}

		// nbins derived: lossy by construction, bins must still cover the range
		b, err := ResolveBinning(Config{
			SepUnits: "deg",
			MinSep:   Ptr(minSep),
			MaxSep:   Ptr(maxSep),
			BinSize:  Ptr(binSize),
		}, nil)
		if err != nil {
			t.Fatalf("no nbins: ResolveBinning failed: %v", err)
		}
		AssertCovers(t, b, tol)
	}
}

func TestBinningSpec_Edges(t *testing.T) {
	b := BinningSpec{MinSep: 1, MaxSep: 100, BinSize: math.Log(100) / 4, NBins: 4}

	want := []float64{1, math.Sqrt(10), 10, 10 * math.Sqrt(10), 100}
	if diff := cmp.Diff(want, b.Edges(), cmpopts.EquateApprox(1e-12, 0)); diff != "" {
		t.Errorf("Edges mismatch (-want +got):\n%s", diff)
	}

	centers := b.Centers()
	require.Len(t, centers, 4)
	for i, c := range centers {
		edges := b.Edges()
		// log center is the geometric mean of the edges
		assert.InDelta(t, math.Sqrt(edges[i]*edges[i+1]), c, 1e-9)
	}
}

func TestBinningSpec_Index(t *testing.T) {
	b := BinningSpec{MinSep: 1, MaxSep: 100, BinSize: math.Log(100) / 10, NBins: 10}

	tests := []struct {
		r      float64
		want   int
		wantOK bool
	}{
		{1, 0, true},
		{1.2, 0, true},
		{9, 4, true},
		{11, 5, true},
		{99, 9, true},
		{0.5, 0, false},
		{150, 0, false},
		{0, 0, false},
	}

	for _, tt := range tests {
		got, ok := b.Index(tt.r)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Index(%v) = (%d, %v), want (%d, %v)", tt.r, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBinningSpec_LogSeps(t *testing.T) {
	b := BinningSpec{MinSep: math.E, MaxSep: math.E * math.E}
	assert.InDelta(t, 1.0, b.LogMinSep(), 1e-15)
	assert.InDelta(t, 2.0, b.LogMaxSep(), 1e-15)
}

func TestConfigError_Message(t *testing.T) {
	err := missingKey(KeyMaxSep)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("missingKey should wrap ErrConfiguration")
	}
	if !strings.Contains(err.Error(), "max_sep") {
		t.Errorf("message should name the key, got %q", err.Error())
	}
}
