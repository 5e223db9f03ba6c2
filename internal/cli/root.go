// Package cli implements the command-line interface of the merge tool.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/t03i/jdime/internal/artifact"
	"github.com/t03i/jdime/internal/config"
	"github.com/t03i/jdime/internal/merge"
	"github.com/t03i/jdime/internal/parser"
	"github.com/t03i/jdime/internal/stats"
	"github.com/t03i/jdime/internal/strategy"
)

// Exit codes: 0 clean merge, 1 conflicts remain, 2 internal error.
const (
	exitClean    = 0
	exitConflict = 1
	exitInternal = 2
)

var (
	flagMode        string
	flagOutput      string
	flagDiffOnly    bool
	flagDump        bool
	flagConsecutive bool
	flagRecursive   bool
	flagLookAhead   string
	flagStats       bool
	flagKeepGoing   bool
	flagExitOnError bool
	flagQuiet       bool
	flagPretend     bool
	flagForce       bool

	flagCM             string
	flagCMOptions      string
	flagCMFix          string
	flagCMSeed         string
	flagCMParallel     bool
	flagCMRematchBound float64
)

var rootCmd = &cobra.Command{
	Use:   "jdime [flags] <left> [<base>] <right>...",
	Short: "Structure-aware three-way and n-way merging of source files",
	Long: `jdime merges derived revisions of a source file (or directory tree)
against their common ancestor. Structured strategies match the parsed
syntax trees and merge them node by node; the line-based strategy falls
back to classic three-way text merging.

Examples:
  jdime left.go base.go right.go               # three-way, line-based
  jdime -m structured left.go base.go right.go # tree merge
  jdime -m combined -o out.go l.go b.go r.go   # structured with fallback
  jdime -m nway v1.go v2.go v3.go              # variant-annotated merge`,
	Args: cobra.MinimumNArgs(2),
	Run:  runMerge,
}

func init() {
	rootCmd.Flags().StringVarP(&flagMode, "mode", "m", "", "Merge strategy (see 'jdime strategies')")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file or directory")
	rootCmd.Flags().BoolVarP(&flagDiffOnly, "diff-only", "d", false, "Only diff the inputs, do not merge")
	rootCmd.Flags().BoolVar(&flagDump, "dump", false, "Dump the parsed input trees instead of merging")
	rootCmd.Flags().BoolVar(&flagConsecutive, "consecutive", false, "Treat two inputs as consecutive revisions")
	rootCmd.Flags().BoolVarP(&flagRecursive, "recursive", "r", false, "Merge directories recursively")
	rootCmd.Flags().StringVar(&flagLookAhead, "lookahead", "", "Matcher look-ahead: integer, 'off' or 'full'")
	rootCmd.Flags().BoolVar(&flagStats, "stats", false, "Collect and report merge statistics")
	rootCmd.Flags().BoolVar(&flagKeepGoing, "keep-going", false, "Continue with the next scenario after errors")
	rootCmd.Flags().BoolVar(&flagExitOnError, "exit-on-error", false, "Abort on the first failing scenario")
	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Do not print the merge result")
	rootCmd.Flags().BoolVarP(&flagPretend, "pretend", "p", false, "Do not write the output file")
	rootCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Overwrite existing output files")

	rootCmd.Flags().StringVar(&flagCM, "cm", "", "Cost-model matcher mode: 'off' or 'on'")
	rootCmd.Flags().StringVar(&flagCMOptions, "cm-options", "", "Cost-model tuple: iterations,pAssign,wr,wn,wa,ws,wo")
	rootCmd.Flags().StringVar(&flagCMFix, "cm-fix", "", "Cost-model fix percentages: lower,upper")
	rootCmd.Flags().StringVar(&flagCMSeed, "cm-seed", "", "Cost-model seed: integer or 'none'")
	rootCmd.Flags().BoolVar(&flagCMParallel, "cm-parallel", false, "Run cost-model restarts in parallel")
	rootCmd.Flags().Float64Var(&flagCMRematchBound, "cm-rematch-bound", 0, "Cost-model re-match bound")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runMerge(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	mc := merge.NewMergeContext()
	if err := cfg.Apply(mc); err != nil {
		exitError("%v", err)
	}
	applyFlags(cmd, mc)

	name := flagMode
	if name == "" {
		name = cfg.Strategy
	}
	if name == "" {
		name = strategy.LineBased
	}
	st, err := strategy.Parse(name)
	if err != nil {
		exitError("%v", err)
	}

	conditional := st.Name() == strategy.NWay || len(args) > 3
	files, err := strategy.NewInputSet(args, conditional)
	if err != nil {
		exitError("%v", err)
	}
	mc.InputFiles = files.Inputs

	if flagDump {
		runDump(ctx, files)
	}

	if flagOutput != "" {
		if _, statErr := os.Stat(flagOutput); statErr == nil && !mc.ForceOverwriting {
			exitError("output %s exists, use --force to overwrite", flagOutput)
		}
		mc.OutputFile = artifact.NewOutputFileArtifact(flagOutput, files.Left().IsDirectory())
	}

	start := time.Now()
	conflicts, err := strategy.Run(ctx, mc, st)
	if err != nil {
		exitError("%v", err)
	}

	if !mc.Quiet && mc.HasOutput() {
		fmt.Print(mc.Output())
	}
	if mc.HasErrors() {
		color.New(color.FgYellow).Fprint(os.Stderr, mc.Diagnostics())
	}
	reportCrashes(mc)

	if mc.CollectStatistics {
		mc.Statistics.Print(os.Stdout)
		saveStatistics(cfg, st.Name(), mc.Statistics, time.Since(start))
	}

	if conflicts > 0 {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "merge finished with %d conflict(s)\n", conflicts)
		os.Exit(exitConflict)
	}
	os.Exit(exitClean)
}

// applyFlags folds the explicitly set flags into the context, on top of the
// configuration file.
func applyFlags(cmd *cobra.Command, mc *merge.MergeContext) {
	mc.DiffOnly = mc.DiffOnly || flagDiffOnly
	mc.Consecutive = mc.Consecutive || flagConsecutive
	mc.Recursive = mc.Recursive || flagRecursive
	mc.KeepGoing = mc.KeepGoing || flagKeepGoing
	mc.ExitOnError = mc.ExitOnError || flagExitOnError
	mc.Quiet = mc.Quiet || flagQuiet
	mc.Pretend = mc.Pretend || flagPretend
	mc.ForceOverwriting = mc.ForceOverwriting || flagForce

	if flagStats {
		mc.EnableStatistics()
	}

	if flagLookAhead != "" {
		la, err := config.ParseLookAhead(flagLookAhead)
		if err != nil {
			exitError("%v", err)
		}
		mc.LookAhead = la
	}

	if flagCM != "" {
		mode, err := config.ParseCMMode(flagCM)
		if err != nil {
			exitError("%v", err)
		}
		mc.CMMatcherMode = mode
	}
	if flagCMOptions != "" {
		if err := config.ApplyCostModelOptions(mc, flagCMOptions); err != nil {
			exitError("%v", err)
		}
	}
	if flagCMFix != "" {
		if err := config.ApplyFixPercentage(mc, flagCMFix); err != nil {
			exitError("%v", err)
		}
	}
	if flagCMSeed != "" {
		seed, err := config.ParseSeed(flagCMSeed)
		if err != nil {
			exitError("%v", err)
		}
		mc.Seed = seed
	}
	if cmd.Flags().Changed("cm-parallel") {
		mc.CMMatcherParallel = flagCMParallel
	}
	if flagCMRematchBound > 0 {
		mc.CMReMatchBound = flagCMRematchBound
	}
}

// runDump parses each input and writes its tree rendering to stdout, then
// exits. A diagnostic path; no merging happens.
func runDump(ctx context.Context, files *strategy.FileSet) {
	p := parser.New()
	for _, f := range files.Inputs {
		source, err := f.Read()
		if err != nil {
			exitError("%v", err)
		}
		root, err := p.Parse(ctx, f.Path(), source, f.Revision())
		if err != nil {
			exitError("%v", err)
		}
		fmt.Printf("%s\n", f)
		artifact.DumpTree(os.Stdout, root)
	}
	os.Exit(exitClean)
}

func reportCrashes(mc *merge.MergeContext) {
	crashes := mc.Crashes()
	if len(crashes) == 0 {
		return
	}
	red := color.New(color.FgRed)
	red.Fprintf(os.Stderr, "%d scenario(s) failed:\n", len(crashes))
	for key, err := range crashes {
		red.Fprintf(os.Stderr, "  %s: %v\n", key, err)
	}
}

func saveStatistics(cfg *config.Config, strategyName string, st *stats.Statistics, runtime time.Duration) {
	path, err := cfg.StatsDatabasePath()
	if err != nil {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Warning: cannot open statistics store: %v\n", err)
		return
	}
	store, err := stats.Open(path)
	if err != nil {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Warning: cannot open statistics store: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.SaveRun(strategyName, st, runtime); err != nil {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Warning: cannot record statistics: %v\n", err)
	}
}

// exitError prints a fatal error and exits with the internal-error status.
func exitError(format string, args ...interface{}) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(exitInternal)
}
