package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zen-systems/crosscheck/pkg/archive"
	"github.com/zen-systems/crosscheck/pkg/config"
	"github.com/zen-systems/crosscheck/pkg/history"
	"github.com/zen-systems/crosscheck/pkg/pipeline"
	"github.com/zen-systems/crosscheck/pkg/suite"
)

var (
	suiteFile   string
	workdirFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crosscheck",
		Short: "Build-then-test orchestrator for cross-language binding suites",
		Long: `Crosscheck drives a JVM/native binding test suite: it compiles the
	Java sources, builds the native library, overlays the dynamic-linker
	search path so the JVM runtime can be loaded at test time, and runs
	the native test command with any forwarded arguments.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&suiteFile, "suite", "f", "", "path to suite manifest (defaults to crosscheck.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&workdirFlag, "workdir", "", "project root (defaults to the current directory)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(ciCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(stagesCmd())
	rootCmd.AddCommand(runsCmd())

	if err := rootCmd.Execute(); err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			os.Exit(stageErr.ExitCode)
		}
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- test args...]",
		Short: "Compile, build, and run the binding test suite",
		Long: `Runs the primary stage sequence: clean stale class files, compile the
	Java sources, build the native crate, then run the native test command.
	Everything after -- is forwarded verbatim to the test invocation.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSuite(args, false)
		},
	}
}

func ciCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ci [-- test args...]",
		Short: "Run the full CI sequence, with nightly-gated sub-projects",
		Long: `Runs the primary stage sequence, then an unconditional test run with
	the suite's feature flags enabled. When the toolchain channel is
	nightly, the nested sub-project suites run as well.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSuite(args, true)
		},
	}
}

func executeSuite(args []string, ci bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	javaHome, err := cfg.RequireJavaHome()
	if err != nil {
		return err
	}

	workdir, err := resolveWorkdir()
	if err != nil {
		return err
	}

	s, suitePath, err := loadSuite(workdir)
	if err != nil {
		return err
	}

	opts := pipeline.PlanOptions{Args: args, JavaHome: javaHome}
	var stages []*pipeline.Stage
	if ci {
		stages, err = pipeline.PlanCI(workdir, s, cfg.Channel, opts)
	} else {
		stages, err = pipeline.Plan(workdir, s, opts)
	}
	if err != nil {
		return err
	}

	store, err := archive.NewStore("")
	if err != nil {
		log.Printf("Failed to initialize archive: %v", err)
	}
	hist, err := history.Open("")
	if err != nil {
		log.Printf("Failed to open history store: %v", err)
	} else {
		defer hist.Close()
	}

	result, err := pipeline.Run(context.Background(), stages, pipeline.RunOptions{
		Workdir:   workdir,
		SuitePath: suitePath,
		Channel:   cfg.Channel,
		Archive:   store,
		History:   hist,
		Logger: func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", a...)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Run complete. Evidence: %s\n", result.EvidenceDir)
	return nil
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [suite.yaml]",
		Short: "Validate a suite manifest",
		Long:  "Validates suite YAML without executing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := suite.Load(args[0])
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}
			fmt.Println("Suite manifest is valid.")
			return nil
		},
	}
}

func stagesCmd() *cobra.Command {
	var ciFlag bool

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Show the planned stage sequence without executing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			javaHome, err := cfg.RequireJavaHome()
			if err != nil {
				return err
			}
			workdir, err := resolveWorkdir()
			if err != nil {
				return err
			}
			s, _, err := loadSuite(workdir)
			if err != nil {
				return err
			}

			opts := pipeline.PlanOptions{JavaHome: javaHome}
			var stages []*pipeline.Stage
			if ciFlag {
				stages, err = pipeline.PlanCI(workdir, s, cfg.Channel, opts)
			} else {
				stages, err = pipeline.Plan(workdir, s, opts)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tDIR\tCOMMAND")
			for _, stage := range stages {
				command := history.JoinCommand(stage.Command)
				if stage.Remove != "" {
					command = "(remove " + stage.Remove + ")"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", stage.Name, stage.Dir, command)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&ciFlag, "ci", false, "show the full CI sequence for the current channel")

	return cmd
}

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := history.Open("")
			if err != nil {
				return fmt.Errorf("failed to open history store: %w", err)
			}
			defer hist.Close()

			runs, err := hist.List(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTARTED\tCHANNEL\tSTAGES\tEXIT")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
					run.ID,
					run.StartedAt.Format(time.RFC3339),
					run.Channel,
					run.Stages,
					run.ExitCode)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")

	return cmd
}

func resolveWorkdir() (string, error) {
	if workdirFlag != "" {
		return workdirFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return cwd, nil
}

func loadSuite(workdir string) (*suite.Suite, string, error) {
	if suiteFile != "" {
		s, err := suite.Load(suiteFile)
		if err != nil {
			return nil, "", err
		}
		return s, suiteFile, nil
	}

	manifest := filepath.Join(workdir, "crosscheck.yaml")
	if _, err := os.Stat(manifest); err == nil {
		s, err := suite.Load(manifest)
		if err != nil {
			return nil, "", err
		}
		return s, manifest, nil
	}

	return suite.Default(), "", nil
}
