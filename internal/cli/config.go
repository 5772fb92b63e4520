package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/cqdecomp/internal/compiler"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/pipeline"
)

// EnvPrefix prefixes environment overrides: --max-partitions is read from
// CQDECOMP_MAX_PARTITIONS.
const EnvPrefix = "CQDECOMP"

// Pipeline option keys, shared by flags, environment, and config file.
const (
	keyMode          = "mode"
	keyMaxPartitions = "max-partitions"
	keyTimeBudget    = "time-budget"
	keyTupleLimit    = "tuple-limit"
	keySingleTuple   = "single-tuple"
	keyPlan          = "plan"
	keyDiameterCap   = "diameter-cap"
	keyWorkers       = "workers"
	keySeed          = "seed"
	keyDB            = "db"
)

// settings layers the command's flags over CQDECOMP_* environment variables
// and the --config file.
func (o *RootOptions) settings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", o.ConfigFile, err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	return v, nil
}

// addPipelineFlags registers the decomposition options on cmd.
func addPipelineFlags(cmd *cobra.Command) {
	d := pipeline.DefaultOptions()
	f := cmd.Flags()
	f.String(keyMode, string(d.Mode), "validate (first tuple per partition) or enumerate")
	f.Int(keyMaxPartitions, d.MaxPartitions, "stop generating after this many partitions (0 = unbounded)")
	f.Duration(keyTimeBudget, d.TimeBudget, "wall-clock budget for the whole run (0 = unbounded)")
	f.Int(keyTupleLimit, d.TupleLimit, "tuples to collect per partition in enumerate mode (0 = unbounded)")
	f.Bool(keySingleTuple, d.SingleTuplePerPartition, "collect one tuple per partition")
	f.String(keyPlan, string(d.Plan), "partition plan: all, first, single-edge or random")
	f.Int(keyDiameterCap, d.DiameterCap, "drop rules whose diameter exceeds this (0 = unbounded)")
	f.Int(keyWorkers, d.Workers, "partitions validated concurrently")
	f.Int64(keySeed, d.Seed, "seed for the random plan")
}

// pipelineOptions reads and validates the decomposition options.
func pipelineOptions(v *viper.Viper) (pipeline.Options, error) {
	mode, err := pipeline.ParseMode(v.GetString(keyMode))
	if err != nil {
		return pipeline.Options{}, err
	}
	plan, err := pipeline.ParsePlanMode(v.GetString(keyPlan))
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Mode:                    mode,
		MaxPartitions:           v.GetInt(keyMaxPartitions),
		TimeBudget:              v.GetDuration(keyTimeBudget),
		TupleLimit:              v.GetInt(keyTupleLimit),
		SingleTuplePerPartition: v.GetBool(keySingleTuple),
		Plan:                    plan,
		DiameterCap:             v.GetInt(keyDiameterCap),
		Workers:                 v.GetInt(keyWorkers),
		Seed:                    v.GetInt64(keySeed),
	}
	if err := opts.Validate(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

// newLogger writes text logs to w at Warn, or Debug when verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadQuery reads one query and reports failures with the right exit code.
func loadQuery(f *OutputFormatter, path, name string) (*ir.Query, error) {
	q, err := compiler.LoadOne(path, name)
	if err != nil {
		return nil, queryError(f, path, err)
	}
	f.VerboseLog("Loaded query %s from %s (%d edges)", q.Name, path, len(q.Edges))
	return q, nil
}

// queryError maps a query loading error onto an exit code: missing files are
// command errors, invalid queries are failures.
func queryError(f *OutputFormatter, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("query file not found: %s", path), nil)
	}
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) {
		if outErr := f.Error(ErrCodeQuery, fmt.Sprintf("%s: invalid query", path), []compiler.ValidationError(verrs)); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("[%s] invalid query", ErrCodeQuery), err)
	}
	return f.Fail(ExitFailure, ErrCodeQuery, fmt.Sprintf("cannot load %s", path), err)
}

// configError reports rejected pipeline options.
func configError(f *OutputFormatter, err error) error {
	return f.Fail(ExitCommandError, ErrCodeConfig, "invalid options", err)
}
