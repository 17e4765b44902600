package treecorr

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Recognized configuration keys.
const (
	KeyNBins    = "nbins"
	KeyBinSize  = "bin_size"
	KeyMinSep   = "min_sep"
	KeyMaxSep   = "max_sep"
	KeySepUnits = "sep_units"
	KeyBinSlop  = "bin_slop"
	KeyVerbose  = "verbose"
	KeyLogFile  = "log_file"
	KeyXCol     = "x_col"
	KeyYCol     = "y_col"
)

// DefaultBinSlop is used when bin_slop is not configured.
const DefaultBinSlop = 1.0

// Config holds the parameters shared by every correlation kind.
//
// Pointer fields are optional: nil means "not supplied", which matters for
// the binning parameters since exactly three of the four must be present.
type Config struct {
	NBins   *int     `yaml:"nbins,omitempty" mapstructure:"nbins" validate:"omitempty,gt=0"`
	BinSize *float64 `yaml:"bin_size,omitempty" mapstructure:"bin_size" validate:"omitempty,gt=0"`
	MinSep  *float64 `yaml:"min_sep,omitempty" mapstructure:"min_sep" validate:"omitempty,gt=0"`
	MaxSep  *float64 `yaml:"max_sep,omitempty" mapstructure:"max_sep" validate:"omitempty,gt=0"`

	SepUnits string   `yaml:"sep_units,omitempty" mapstructure:"sep_units"`
	BinSlop  *float64 `yaml:"bin_slop,omitempty" mapstructure:"bin_slop" validate:"omitempty,gte=0"`

	Verbose *int   `yaml:"verbose,omitempty" mapstructure:"verbose" validate:"omitempty,gte=0"`
	LogFile string `yaml:"log_file,omitempty" mapstructure:"log_file"`

	// Cartesian mode: when XCol is set, sep_units may be omitted.
	XCol string `yaml:"x_col,omitempty" mapstructure:"x_col"`
	YCol string `yaml:"y_col,omitempty" mapstructure:"y_col"`
}

// Ptr returns a pointer to v, for filling optional Config fields.
func Ptr[T any](v T) *T {
	return &v
}

// DefaultConfig returns a Config with only the defaults filled in.
// The binning parameters are left for the caller.
func DefaultConfig() Config {
	return Config{
		BinSlop: Ptr(DefaultBinSlop),
		Verbose: Ptr(0),
	}
}

// Merge returns c with every field set in overrides replacing c's value.
// It is a shallow merge: fields absent from overrides keep c's value.
func (c Config) Merge(overrides Config) Config {
	out := c
	if overrides.NBins != nil {
		out.NBins = Ptr(*overrides.NBins)
	}
	if overrides.BinSize != nil {
		out.BinSize = Ptr(*overrides.BinSize)
	}
	if overrides.MinSep != nil {
		out.MinSep = Ptr(*overrides.MinSep)
	}
	if overrides.MaxSep != nil {
		out.MaxSep = Ptr(*overrides.MaxSep)
	}
	if overrides.SepUnits != "" {
		out.SepUnits = overrides.SepUnits
	}
	if overrides.BinSlop != nil {
		out.BinSlop = Ptr(*overrides.BinSlop)
	}
	if overrides.Verbose != nil {
		out.Verbose = Ptr(*overrides.Verbose)
	}
	if overrides.LogFile != "" {
		out.LogFile = overrides.LogFile
	}
	if overrides.XCol != "" {
		out.XCol = overrides.XCol
	}
	if overrides.YCol != "" {
		out.YCol = overrides.YCol
	}
	return out
}

// Has reports whether key is present in c.
func (c Config) Has(key string) bool {
	switch key {
	case KeyNBins:
		return c.NBins != nil
	case KeyBinSize:
		return c.BinSize != nil
	case KeyMinSep:
		return c.MinSep != nil
	case KeyMaxSep:
		return c.MaxSep != nil
	case KeySepUnits:
		return c.SepUnits != ""
	case KeyBinSlop:
		return c.BinSlop != nil
	case KeyVerbose:
		return c.Verbose != nil
	case KeyLogFile:
		return c.LogFile != ""
	case KeyXCol:
		return c.XCol != ""
	case KeyYCol:
		return c.YCol != ""
	}
	return false
}

// VerboseLevel returns the configured verbosity, 0 when unset.
func (c Config) VerboseLevel() int {
	if c.Verbose == nil {
		return 0
	}
	return *c.Verbose
}

// BinSlopValue returns the configured bin_slop or DefaultBinSlop.
func (c Config) BinSlopValue() float64 {
	if c.BinSlop == nil {
		return DefaultBinSlop
	}
	return *c.BinSlop
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// report yaml key names so errors match the configuration file
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("yaml")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		validate = v
	})
	return validate
}

// Validate checks the range of every supplied numeric parameter.
// The first offending field is returned as a *ValueError.
func (c Config) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	return &ValueError{
		Key:    fe.Field(),
		Value:  fe.Value(),
		Reason: describeRule(fe.Tag(), fe.Param()),
	}
}

func describeRule(tag, param string) string {
	switch tag {
	case "gt":
		if param == "0" {
			return "must be positive"
		}
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "lte":
		return "must be at most " + param
	}
	return "failed " + tag + " check"
}

// ConfigFromMap decodes a loose key/value mapping into a Config.
// Values may be numbers or numeric strings; unknown keys are ignored.
// A nil value counts as absent.
func ConfigFromMap(m map[string]any) (Config, error) {
	v := viper.New()
	if err := v.MergeConfigMap(m); err != nil {
		return Config{}, fmt.Errorf("merge config map: %w", err)
	}
	return ConfigFromViper(v)
}

// LoadConfig reads a YAML, JSON or TOML configuration file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ConfigFromViper(v)
}

// ConfigFromViper extracts a Config from v. Presence follows v.IsSet, so a
// bound command-line flag only counts once it has been changed.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	var (
		cfg Config
		err error
	)
	if cfg.NBins, err = intKey(v, KeyNBins); err != nil {
		return Config{}, err
	}
	if cfg.BinSize, err = floatKey(v, KeyBinSize); err != nil {
		return Config{}, err
	}
	if cfg.MinSep, err = floatKey(v, KeyMinSep); err != nil {
		return Config{}, err
	}
	if cfg.MaxSep, err = floatKey(v, KeyMaxSep); err != nil {
		return Config{}, err
	}
	if cfg.BinSlop, err = floatKey(v, KeyBinSlop); err != nil {
		return Config{}, err
	}
	if cfg.Verbose, err = intKey(v, KeyVerbose); err != nil {
		return Config{}, err
	}
	cfg.SepUnits = stringKey(v, KeySepUnits)
	cfg.LogFile = stringKey(v, KeyLogFile)
	cfg.XCol = stringKey(v, KeyXCol)
	cfg.YCol = stringKey(v, KeyYCol)
	return cfg, nil
}

func intKey(v *viper.Viper, key string) (*int, error) {
	if !v.IsSet(key) || v.Get(key) == nil {
		return nil, nil
	}
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return nil, &ConfigError{Key: key, Reason: fmt.Sprintf("not an integer: %v", v.Get(key))}
	}
	return &n, nil
}

func floatKey(v *viper.Viper, key string) (*float64, error) {
	if !v.IsSet(key) || v.Get(key) == nil {
		return nil, nil
	}
	f, err := cast.ToFloat64E(v.Get(key))
	if err != nil {
		return nil, &ConfigError{Key: key, Reason: fmt.Sprintf("not a number: %v", v.Get(key))}
	}
	return &f, nil
}

func stringKey(v *viper.Viper, key string) string {
	if !v.IsSet(key) || v.Get(key) == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v.Get(key)))
}
