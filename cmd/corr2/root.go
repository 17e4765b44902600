package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/alexshd/treecorr"
)

// binningFlags maps command-line flags to configuration keys.
var binningFlags = map[string]string{
	"nbins":     treecorr.KeyNBins,
	"bin-size":  treecorr.KeyBinSize,
	"min-sep":   treecorr.KeyMinSep,
	"max-sep":   treecorr.KeyMaxSep,
	"sep-units": treecorr.KeySepUnits,
	"bin-slop":  treecorr.KeyBinSlop,
	"verbose":   treecorr.KeyVerbose,
	"log-file":  treecorr.KeyLogFile,
	"x-col":     treecorr.KeyXCol,
	"y-col":     treecorr.KeyYCol,
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "corr2",
		Short: "Two-point correlation binning",
		Long: `corr2 reads a treecorr configuration (YAML, JSON or TOML), applies
command-line overrides and resolves the logarithmic binning.

Exactly three of --nbins, --bin-size, --min-sep and --max-sep must be
set across the file and the flags. Flags take precedence over the file,
and CORR2_* environment variables over both the file and defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file")
	pf.Int("nbins", 0, "number of bins")
	pf.Float64("bin-size", 0, "bin width in ln(separation)")
	pf.Float64("min-sep", 0, "minimum separation, in sep-units")
	pf.Float64("max-sep", 0, "maximum separation, in sep-units")
	pf.String("sep-units", "", "separation units (radians, hours, degrees, arcmin, arcsec)")
	pf.Float64("bin-slop", treecorr.DefaultBinSlop, "binning tolerance")
	pf.IntP("verbose", "v", 0, "verbosity: 0 errors, 1 warnings, 2 info, 3 or more debug")
	pf.String("log-file", "", "write log records to this file instead of stderr")
	pf.String("x-col", "", "x column, selects Cartesian mode")
	pf.String("y-col", "", "y column")

	if err := bindFlags(v, pf); err != nil {
		panic(err)
	}

	v.SetEnvPrefix("CORR2")
	v.AutomaticEnv()

	root.AddCommand(newBinsCmd(v))
	root.AddCommand(newRunCmd(v))
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range binningFlags {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig layers the --config file under the bound flags and returns
// the merged configuration.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (treecorr.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return treecorr.Config{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return treecorr.Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return treecorr.ConfigFromViper(v)
}

// setup loads the configuration and builds the logger it describes.
func setup(cmd *cobra.Command, v *viper.Viper) (treecorr.Config, *slog.Logger, io.Closer, error) {
	cfg, err := loadConfig(cmd, v)
	if err != nil {
		return treecorr.Config{}, nil, nil, err
	}
	logger, closer, err := treecorr.NewLoggerFromConfig(cfg)
	if err != nil {
		return treecorr.Config{}, nil, nil, err
	}
	return cfg, logger, closer, nil
}

// binsReport is the YAML document printed by `corr2 bins`.
type binsReport struct {
	treecorr.BinningSpec `yaml:",inline"`

	Edges []float64 `yaml:"edges,omitempty"`
}

func newBinsCmd(v *viper.Viper) *cobra.Command {
	var withEdges bool

	cmd := &cobra.Command{
		Use:   "bins",
		Short: "Resolve and print the binning as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := setup(cmd, v)
			if err != nil {
				return err
			}
			defer closer.Close()

			b, err := treecorr.ResolveBinning(cfg, logger)
			if err != nil {
				return err
			}

			report := binsReport{BinningSpec: b}
			if withEdges {
				report.Edges = b.Edges()
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encode binning: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&withEdges, "edges", false, "include bin edges (radians)")
	return cmd
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	var (
		kindName string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a correlation of the given kind and write it",
		Long: `run constructs a correlation (gg, nn, kk, ng, nk or kg) from the
configuration and, when --output is set, writes it. Pair counting is not
implemented, so the written correlation is always empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := treecorr.ParseKind(kindName)
			if err != nil {
				return err
			}

			cfg, logger, closer, err := setup(cmd, v)
			if err != nil {
				return err
			}
			defer closer.Close()

			if kind.IsComplex() {
				return runKind[complex128](cmd.OutOrStdout(), kind, cfg, logger, output)
			}
			return runKind[float64](cmd.OutOrStdout(), kind, cfg, logger, output)
		},
	}

	cmd.Flags().StringVarP(&kindName, "kind", "k", "", "correlation kind: "+kindList())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func runKind[T treecorr.Value](out io.Writer, kind treecorr.Kind, cfg treecorr.Config, logger *slog.Logger, output string) error {
	c, err := treecorr.New[T](kind, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	b := c.Binning()
	fmt.Fprintf(out, "%s (%s): nbins=%d bin_size=%.6g min_sep=%.6g max_sep=%.6g rad\n",
		kind, kind.Description(), b.NBins, b.BinSize, b.MinSep, b.MaxSep)

	if output == "" {
		return nil
	}
	return c.Write(output)
}

func kindList() string {
	names := make([]string, 0, len(treecorr.Kinds()))
	for _, k := range treecorr.Kinds() {
		names = append(names, strings.ToLower(k.String()))
	}
	return strings.Join(names, ", ")
}
