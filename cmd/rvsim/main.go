// Package main provides the rvsim command line.
// rvsim runs an RV32I program on a single-stage and a five-stage core and
// writes the per-cycle traces, final state and performance of both.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rvsim/benchmarks"
	"github.com/sarchlab/rvsim/config"
	"github.com/sarchlab/rvsim/loader"
	"github.com/sarchlab/rvsim/log"
	"github.com/sarchlab/rvsim/report"
	"github.com/sarchlab/rvsim/timing/core"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type runOptions struct {
	outDir       string
	configPath   string
	logLevel     string
	byteOrder    string
	dcache       bool
	showPipeline bool
	cpuProfile   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rvsim",
		Short: "Cycle-accurate RV32I simulator",
		Long: `rvsim runs an RV32I program on a single-stage core and on a five-stage
pipelined core and reports the state and performance of both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(newRunCmd(), newBenchCmd())
	return rootCmd
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <iodir>",
		Short: "Simulate the imem.txt/dmem.txt images in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}

			if opts.cpuProfile != "" {
				stop, err := startCPUProfile(opts.cpuProfile)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					return err
				}
				defer stop()
			}

			if err := runSimulation(args[0], cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.outDir, "out", "result", "Directory that receives <testcase>/ result folders")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a JSON configuration file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	cmd.Flags().StringVar(&opts.byteOrder, "byte-order", config.ByteOrderLittle, "Instruction byte order: little or big")
	cmd.Flags().BoolVar(&opts.dcache, "dcache", false, "Profile data accesses with the data-cache model")
	cmd.Flags().BoolVar(&opts.showPipeline, "show-pipeline", false, "Print the five-stage pipeline contents of every cycle")
	cmd.Flags().StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile of the simulation to file")

	return cmd
}

func startCPUProfile(path string) (stop func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("starting CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

// buildConfig loads the configuration file, if any, and applies the flags
// the user set explicitly.
func buildConfig(cmd *cobra.Command, opts runOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("byte-order") {
		cfg.InstructionByteOrder = opts.byteOrder
	}
	if flags.Changed("dcache") {
		cfg.DCache.Enabled = opts.dcache
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runSimulation runs both cores and writes every result file. A core that
// fails still gets its results written; the failures are returned together.
func runSimulation(iodir string, cfg *config.Config, opts runOptions, out, logOut io.Writer) error {
	if err := log.InitLogger(cfg.LogLevel, logOut); err != nil {
		return err
	}

	prog, err := loader.Load(iodir)
	if err != nil {
		return err
	}

	resultDir := filepath.Join(opts.outDir, prog.Name)
	log.Info(log.CLIModule, "running test case", "name", prog.Name, "result_dir", resultDir)

	var (
		metrics []report.Metrics
		errs    []error
	)

	for _, kind := range []core.Kind{core.SingleStage, core.FiveStage} {
		c, err := core.New(kind, prog, cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s core: %w", kind, err))
			continue
		}

		if _, err := c.Run(); err != nil {
			errs = append(errs, err)
		}

		if err := report.WriteCoreResults(resultDir, c); err != nil {
			errs = append(errs, err)
		}
		metrics = append(metrics, report.MetricsOf(c))

		if opts.showPipeline && kind == core.FiveStage {
			for _, rec := range c.Trace().Records() {
				fmt.Fprint(out, report.PipelineTree(rec).String())
			}
		}
	}

	if err := report.WritePerformanceResults(resultDir, metrics); err != nil {
		errs = append(errs, err)
	}

	fmt.Fprintf(out, "Results: %s\n", resultDir)
	for _, m := range metrics {
		fmt.Fprintln(out, m.Report.String())
	}

	return errors.Join(errs...)
}

func newBenchCmd() *cobra.Command {
	var (
		format    string
		dcache    bool
		maxCycles uint64
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the built-in microbenchmarks on both cores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			harnessConfig := benchmarks.DefaultConfig()
			harnessConfig.Output = cmd.OutOrStdout()
			harnessConfig.EnableDCache = dcache
			harnessConfig.MaxCycles = maxCycles
			harnessConfig.Verbose = verbose

			harness := benchmarks.NewHarness(harnessConfig)
			harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			results := harness.RunAll()

			switch format {
			case "text":
				harness.PrintResults(results)
			case "csv":
				harness.PrintCSV(results)
			case "json":
				if err := harness.PrintJSON(results); err != nil {
					return err
				}
			default:
				err := fmt.Errorf("unknown format %q", format)
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}

			summary := benchmarks.Summarize(results)
			if summary.Passed != summary.TotalBenchmarks {
				err := fmt.Errorf("%d of %d benchmarks failed",
					summary.TotalBenchmarks-summary.Passed, summary.TotalBenchmarks)
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or csv")
	cmd.Flags().BoolVar(&dcache, "dcache", true, "Profile data accesses with the data-cache model")
	cmd.Flags().Uint64Var(&maxCycles, "max-cycles", config.Default().MaxCycles, "Cycle budget per core run (0 = unlimited)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	return cmd
}
