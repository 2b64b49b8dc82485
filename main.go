package main

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/syou6162/git-patch-fixer/internal/config"
	"github.com/syou6162/git-patch-fixer/internal/executor"
	"github.com/syou6162/git-patch-fixer/internal/fixer"
	"github.com/syou6162/git-patch-fixer/internal/logger"
	"github.com/syou6162/git-patch-fixer/internal/validator"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		errorColor.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "patch-fixer [flags] <target> <input.patch> <output.patch>",
		Short: "Repair malformed unified diff patches against the files they modify",
		Long: `patch-fixer rewrites a hand-edited or generated patch so that git can apply it.
Hunk headers are recomputed from the target files, missing or contradictory
file headers are reconciled, and line endings are normalized.

<target> is either a directory the patch paths are relative to, or the single
file the patch modifies.`,
		Example:       "  patch-fixer . broken.patch fixed.patch\n  patch-fixer --fuzzy src/main.go edit.patch out.patch",
		Args:          cobra.ExactArgs(3),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// argument errors above still print usage
			cmd.SilenceUsage = true
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args[0], args[1], args[2], stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "config file (default: .patch-fixer.yaml in the working directory or $HOME)")
	flags.Bool("fuzzy", false, "fall back to approximate matching when a hunk's context is not found")
	flags.Float64("fuzzy-threshold", fixer.DefaultFuzzyThreshold, "minimum mean line similarity a fuzzy match must exceed, in (0, 1)")
	flags.Bool("add-newline", false, "make every modified file end with a newline")
	flags.Bool("strict", false, "report hunk errors without the owning file")
	flags.Bool("verify", false, "parse and apply the repaired patch in memory before writing it")
	flags.Bool("check", false, "run git apply --check on the repaired patch before writing it")
	flags.BoolP("verbose", "v", false, "enable debug output")
	return cmd
}

// run repairs input against target and writes the result to output.
// Nothing is written unless every requested check passes.
func run(ctx context.Context, cfg *config.Config, target, input, output string, stdout io.Writer) error {
	log := logger.NewFromEnv()
	if cfg.Verbose {
		log.SetLevel(logger.DebugLevel)
	}
	defer func() { _ = log.Sync() }()

	v := validator.NewValidator(executor.NewRealCommandExecutor(log))
	if err := v.ValidateArgs(target, input, output); err != nil {
		return err
	}

	f, err := fixer.New(target, cfg.FixerOptions(), log)
	if err != nil {
		return err
	}
	fixed, err := f.FixFile(input)
	if err != nil {
		return err
	}
	log.Debug("repaired %s against %s", input, f.Target().Base)

	if cfg.Verify {
		summaries, err := f.Verify(fixed)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			log.Info("%s: %s, %d hunks, +%d -%d", s.NewName, s.Operation, s.Fragments, s.Added, s.Deleted)
		}
	}

	if cfg.Check {
		if err := v.CheckDependencies(ctx); err != nil {
			return err
		}
		if err := v.CheckApplies(ctx, f.Target().Base, fixed); err != nil {
			return err
		}
	}

	if err := os.WriteFile(output, []byte(fixed), 0644); err != nil {
		return fixer.NewIOError("writing "+output, err)
	}
	successColor.Fprintf(stdout, "Fixed patch written to %s\n", output)
	return nil
}
