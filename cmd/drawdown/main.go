package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/drawdown/internal/calculation"
	"github.com/rgehrsitz/drawdown/internal/compare"
	"github.com/rgehrsitz/drawdown/internal/config"
	"github.com/rgehrsitz/drawdown/internal/domain"
	"github.com/rgehrsitz/drawdown/internal/historical"
	"github.com/rgehrsitz/drawdown/internal/output"
	"github.com/rgehrsitz/drawdown/internal/solver"
	"github.com/rgehrsitz/drawdown/internal/tui"
)

// logrusLogger adapts logrus to the engine's Logger interface.
type logrusLogger struct {
	log *logrus.Logger
}

func (l logrusLogger) Debugf(format string, args ...any) { l.log.Debugf(format, args...) }
func (l logrusLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l logrusLogger) Warnf(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l logrusLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:          "drawdown",
	Short:        "Retirement drawdown simulator",
	Long:         "Simulates retirement withdrawal plans: deterministic projections, historical backtests, and Monte Carlo analysis over multi-bucket withdrawal policies.",
	SilenceUsage: true,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario-file]",
	Short: "Run a deterministic year-by-year projection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		engine := newEngine(cmd)
		projection, summary, err := engine.RunDeterministic(&input.Scenario)
		if err != nil {
			return err
		}
		return emit(cmd, func(f output.Formatter) ([]byte, error) {
			return f.FormatProjection(&input.Scenario, projection, summary)
		})
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest [scenario-file]",
	Short: "Replay the plan against every historical start year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}
		records, err := loadRecords(cmd, input)
		if err != nil {
			return err
		}

		includePartial, _ := cmd.Flags().GetBool("include-partial")
		workers, _ := cmd.Flags().GetInt("workers")
		if workers == 0 {
			workers = input.Simulation.Backtest.Workers
		}
		if !includePartial {
			includePartial = input.Simulation.Backtest.IncludePartial
		}

		runner := calculation.NewBacktestRunner(newEngine(cmd))
		result, err := runner.Run(signalContext(), &input.Scenario, records, allocationFor(cmd, input), calculation.BacktestOptions{
			IncludePartial: includePartial,
			Workers:        workers,
		})
		if err != nil {
			return err
		}
		return emit(cmd, func(f output.Formatter) ([]byte, error) {
			return f.FormatBacktest(&input.Scenario, result)
		})
	},
}

var monteCarloCmd = &cobra.Command{
	Use:   "monte-carlo [scenario-file]",
	Short: "Run stochastic simulations over randomized return sequences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		cfg, err := monteCarloConfig(cmd, input)
		if err != nil {
			return err
		}

		runner := calculation.NewMonteCarloRunner(newEngine(cmd))
		ctx := signalContext()

		var result *domain.MonteCarloResult
		showProgress, _ := cmd.Flags().GetBool("interactive")
		if showProgress {
			err = tui.RunWithProgress(ctx, "Monte Carlo: "+input.Scenario.Name, cfg.Iterations,
				func(ctx context.Context, report func(completed, total int)) error {
					cfg.Progress = report
					var runErr error
					result, runErr = runner.Run(ctx, &input.Scenario, cfg)
					return runErr
				})
		} else {
			result, err = runner.Run(ctx, &input.Scenario, cfg)
		}
		if err != nil {
			return err
		}
		return emit(cmd, func(f output.Formatter) ([]byte, error) {
			return f.FormatMonteCarlo(&input.Scenario, result)
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [scenario-file]",
	Short: "Compare withdrawal sequencing strategies for one scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		base, _ := cmd.Flags().GetString("base")
		strategiesFlag, _ := cmd.Flags().GetString("strategies")
		var strategies []string
		if strategiesFlag != "" {
			for _, s := range strings.Split(strategiesFlag, ",") {
				strategies = append(strategies, strings.TrimSpace(s))
			}
		}

		sc := &input.Scenario
		rate := sc.Parameters.AssumedReturnRate
		if rate.IsZero() {
			rate = sc.BlendedGrowthRate()
		}
		source := calculation.ConstantReturnSource{
			AnnualReturn: rate,
			Inflation:    sc.Parameters.AssumedInflationRate,
		}

		engine := compare.NewCompareEngine(newEngine(cmd))
		set, err := engine.Compare(signalContext(), sc, source, compare.CompareOptions{
			BaseStrategy: base,
			Strategies:   strategies,
		})
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		switch strings.ToLower(format) {
		case "table", "":
			fmt.Fprint(cmd.OutOrStdout(), (&compare.TableFormatter{}).Format(set))
		case "csv":
			out, err := (&compare.CSVFormatter{}).Format(set)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
		case "json":
			out, err := (&compare.JSONFormatter{Pretty: true}).Format(set)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
		default:
			return fmt.Errorf("unsupported format %q (supported: table, csv, json)", format)
		}
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate [scenario-file]",
	Short: "Solve for the highest sustainable withdrawal rate",
	Long:  "Bisects the first bucket's withdrawal rate for the highest value whose historical backtest still meets the success-rate target.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}
		records, err := loadRecords(cmd, input)
		if err != nil {
			return err
		}

		target, _ := cmd.Flags().GetFloat64("target-success")
		minRate, _ := cmd.Flags().GetFloat64("min-rate")
		maxRate, _ := cmd.Flags().GetFloat64("max-rate")

		s := solver.NewDefaultSolver(calculation.NewBacktestRunner(newEngine(cmd)))
		result, err := s.SolveWithdrawalRate(signalContext(), solver.RateRequest{
			Scenario:          &input.Scenario,
			Records:           records,
			Allocation:        allocationFor(cmd, input),
			TargetSuccessRate: decimal.NewFromFloat(target),
			MinRate:           decimal.NewFromFloat(minRate),
			MaxRate:           decimal.NewFromFloat(maxRate),
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Optimal withdrawal rate: %s\n", output.FormatPercent(result.OptimalRate))
		fmt.Fprintf(out, "Backtest success rate:   %s\n", output.FormatPercent(result.SuccessRate))
		fmt.Fprintf(out, "Start years tested:      %d\n", result.Backtest.StartYearsTested)
		fmt.Fprintf(out, "Iterations:              %d (converged: %t)\n", result.Iterations, result.Converged)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [scenario-file]",
	Short: "Validate a scenario file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d accounts, %d buckets, %d-year horizon)\n",
			input.Scenario.Name,
			len(input.Scenario.Accounts),
			len(input.Scenario.Buckets),
			input.Scenario.Parameters.HorizonYears())
		return nil
	},
}

func dataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect the historical returns dataset",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-series statistics for the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			first, last := ds.Years()
			stats := ds.Stats()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Coverage: %d-%d (%d years)\n\n", first, last, ds.Len())
			fmt.Fprintf(out, "%-10s %10s %10s\n", "Series", "Mean", "StdDev")
			fmt.Fprintf(out, "%-10s %10s %10s\n", "stocks", output.FormatPercent(stats.StockMean), output.FormatPercent(stats.StockStdDev))
			fmt.Fprintf(out, "%-10s %10s %10s\n", "bonds", output.FormatPercent(stats.BondMean), output.FormatPercent(stats.BondStdDev))
			fmt.Fprintf(out, "%-10s %10s %10s\n", "inflation", output.FormatPercent(stats.InflationMean), output.FormatPercent(stats.InflationStdDev))
			return nil
		},
	}

	queryCmd := &cobra.Command{
		Use:   "query [year]",
		Short: "Show one year's returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(cmd)
			if err != nil {
				return err
			}
			var year int
			if _, err := fmt.Sscanf(args[0], "%d", &year); err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			rec, err := ds.Record(year)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d\n", rec.Year)
			fmt.Fprintf(out, "  stocks:    %s\n", output.FormatPercent(rec.StockReturn))
			fmt.Fprintf(out, "  bonds:     %s\n", output.FormatPercent(rec.BondReturn))
			fmt.Fprintf(out, "  inflation: %s\n", output.FormatPercent(rec.Inflation))
			return nil
		},
	}

	cmd.PersistentFlags().String("data", "", "External returns YAML (default: bundled dataset)")
	cmd.AddCommand(statsCmd)
	cmd.AddCommand(queryCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "drawdown %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "go: %s\n", bi.GoVersion)
			}
		},
	}
}

// newEngine builds the simulation engine, wiring logrus in at the
// requested verbosity.
func newEngine(cmd *cobra.Command) *calculation.Engine {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	verbose, _ := cmd.Flags().GetBool("verbose")
	log.SetLevel(logLevel(verbose))

	engine := calculation.NewEngine()
	engine.SetLogger(logrusLogger{log: log})
	return engine
}

// logLevel resolves engine verbosity: --verbose wins, then
// DRAWDOWN_LOG_LEVEL (any name logrus.ParseLevel accepts), then warnings
// only. An unparseable level falls back rather than failing the command.
func logLevel(verbose bool) logrus.Level {
	if verbose {
		return logrus.DebugLevel
	}
	if raw := os.Getenv("DRAWDOWN_LOG_LEVEL"); raw != "" {
		if lvl, err := logrus.ParseLevel(raw); err == nil {
			return lvl
		}
	}
	return logrus.WarnLevel
}

// emit runs the shared format/output-file plumbing for result commands.
func emit(cmd *cobra.Command, render func(output.Formatter) ([]byte, error)) error {
	format, _ := cmd.Flags().GetString("format")
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	data, err := render(formatter)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func loadDataset(cmd *cobra.Command) (*historical.Dataset, error) {
	if path, _ := cmd.Flags().GetString("data"); path != "" {
		return historical.LoadFile(path)
	}
	return historical.Load()
}

func loadRecords(cmd *cobra.Command, input *config.Input) ([]domain.HistoricalReturnRecord, error) {
	path, _ := cmd.Flags().GetString("data")
	if path == "" {
		path = input.Simulation.HistoricalDataFile
	}
	var (
		ds  *historical.Dataset
		err error
	)
	if path != "" {
		ds, err = historical.LoadFile(path)
	} else {
		ds, err = historical.Load()
	}
	if err != nil {
		return nil, err
	}
	return ds.Records(), nil
}

func allocationFor(cmd *cobra.Command, input *config.Input) decimal.Decimal {
	if cmd.Flags().Changed("allocation") {
		alloc, _ := cmd.Flags().GetFloat64("allocation")
		return decimal.NewFromFloat(alloc)
	}
	return input.Simulation.StockAllocation
}

func monteCarloConfig(cmd *cobra.Command, input *config.Input) (calculation.MonteCarloConfig, error) {
	cfg := calculation.MonteCarloConfig{
		Iterations: input.Simulation.MonteCarlo.Iterations,
		Seed:       input.Simulation.MonteCarlo.Seed,
		Workers:    input.Simulation.MonteCarlo.Workers,
		Bootstrap:  input.Simulation.MonteCarlo.Bootstrap,
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("bootstrap") {
		cfg.Bootstrap, _ = cmd.Flags().GetBool("bootstrap")
	}

	allocation := allocationFor(cmd, input)
	if calibrate, _ := cmd.Flags().GetBool("calibrate"); calibrate || cfg.Bootstrap {
		records, err := loadRecords(cmd, input)
		if err != nil {
			return cfg, err
		}
		cfg.Records = records
		if calibrate {
			ds, err := loadDataset(cmd)
			if err != nil {
				return cfg, err
			}
			stats := ds.Stats()
			cfg.Distribution = calculation.DistributionConfig{
				StockMean:       stats.StockMean,
				StockStdDev:     stats.StockStdDev,
				BondMean:        stats.BondMean,
				BondStdDev:      stats.BondStdDev,
				InflationMean:   stats.InflationMean,
				InflationStdDev: stats.InflationStdDev,
				StockAllocation: allocation,
			}
			return cfg, nil
		}
	}
	cfg.Distribution = calculation.DefaultDistribution(allocation)
	return cfg, nil
}

// signalContext cancels on SIGINT/SIGTERM so long runs shut down with a
// partial result instead of dying mid-write.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
		// A second signal falls through to the default handler.
		signal.Stop(sig)
	}()
	return ctx
}

func init() {
	simulateCmd.Flags().StringP("format", "f", "table", "Output format (table, csv, json)")
	simulateCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
	simulateCmd.Flags().BoolP("verbose", "v", false, "Verbose engine logging")

	backtestCmd.Flags().StringP("format", "f", "table", "Output format (table, csv, json)")
	backtestCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
	backtestCmd.Flags().BoolP("verbose", "v", false, "Verbose engine logging")
	backtestCmd.Flags().Bool("include-partial", false, "Also run truncated windows near the end of the data")
	backtestCmd.Flags().Int("workers", 0, "Concurrent windows (default 4)")
	backtestCmd.Flags().Float64("allocation", 0.6, "Stock allocation for blended historical returns")
	backtestCmd.Flags().String("data", "", "External returns YAML (default: bundled dataset)")

	monteCarloCmd.Flags().StringP("format", "f", "table", "Output format (table, csv, json)")
	monteCarloCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
	monteCarloCmd.Flags().BoolP("verbose", "v", false, "Verbose engine logging")
	monteCarloCmd.Flags().IntP("iterations", "n", 1000, "Number of iterations")
	monteCarloCmd.Flags().Int64("seed", 0, "Random seed (0 picks one from the clock)")
	monteCarloCmd.Flags().Int("workers", 0, "Concurrent iterations (default 4)")
	monteCarloCmd.Flags().Bool("bootstrap", false, "Resample historical years instead of normal draws")
	monteCarloCmd.Flags().Bool("calibrate", false, "Fit the return distribution to the historical dataset")
	monteCarloCmd.Flags().Bool("interactive", false, "Show an interactive progress bar")
	monteCarloCmd.Flags().Float64("allocation", 0.6, "Stock allocation")
	monteCarloCmd.Flags().String("data", "", "External returns YAML (default: bundled dataset)")

	compareCmd.Flags().StringP("format", "f", "table", "Output format (table, csv, json)")
	compareCmd.Flags().BoolP("verbose", "v", false, "Verbose engine logging")
	compareCmd.Flags().String("base", "", "Base strategy to measure against (default: the scenario's)")
	compareCmd.Flags().String("strategies", "", "Comma-separated strategies to include")

	rateCmd.Flags().BoolP("verbose", "v", false, "Verbose engine logging")
	rateCmd.Flags().Float64("target-success", 0.95, "Required backtest success rate")
	rateCmd.Flags().Float64("min-rate", 0.01, "Lower bound of the rate search")
	rateCmd.Flags().Float64("max-rate", 0.15, "Upper bound of the rate search")
	rateCmd.Flags().Float64("allocation", 0.6, "Stock allocation for blended historical returns")
	rateCmd.Flags().String("data", "", "External returns YAML (default: bundled dataset)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(monteCarloCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dataCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Optional .env for local defaults; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
