// Command bellum is a thin terminal front end over the scheduling core: a
// one-shot "schedule" run, a solver listing, and the HTTP result façade.
// It deliberately does not parse RTS project files or serve a dashboard —
// both are out of scope for this repository.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bellum/bellum/internal/config"
	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/estimator"
	"github.com/bellum/bellum/pkg/httpapi"
	"github.com/bellum/bellum/pkg/ledger"
	"github.com/bellum/bellum/pkg/scheduler"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "bellum",
		Short: "Resource-task scheduling engine",
	}

	root.AddCommand(scheduleCmd())
	root.AddCommand(solversCmd())
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func scheduleCmd() *cobra.Command {
	var input string
	var solverName string
	var timeLimit time.Duration

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a solver against a project file and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(input, solverName, timeLimit)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "path to a ProjectDto-shaped JSON file")
	cmd.Flags().StringVar(&solverName, "solver", "Choco Solver", "registered solver name")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", scheduler.DefaultTimeLimit, "solve time budget")
	cmd.MarkFlagRequired("input")
	return cmd
}

func runSchedule(input, solverName string, timeLimit time.Duration) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %q: %w", input, err)
	}
	var dto httpapi.ProjectDto
	if err := json.Unmarshal(data, &dto); err != nil {
		return fmt.Errorf("parsing %q: %w", input, err)
	}
	project, err := dto.ToProject()
	if err != nil {
		return fmt.Errorf("building project: %w", err)
	}

	reg := buildRegistry()
	descriptor, err := reg.Lookup(solverName)
	if err != nil {
		return err
	}

	est := estimator.NewPearsonEstimator()
	sched := scheduler.NewScheduler(descriptor.Name, descriptor.NewEngine(est), scheduler.WithLogger(hclog.NewNullLogger()))

	history, err := sched.CollectAllOptimalSchedules(context.Background(), project, timeLimit, func(domain.SchedulerSolution) error { return nil })
	if err != nil {
		return err
	}

	summary := httpapi.NewSolutionSummaryDto(history)
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func solversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solvers",
		Short: "List registered solvers",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := buildRegistry()
			for _, name := range reg.Names() {
				descriptor, err := reg.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-16s %s\n", descriptor.Name, descriptor.Description)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP result façade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a bellum.yaml config file")
	return cmd
}

func runServe(configPath, addrOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	addr := cfg.HTTP.Addr
	if addrOverride != "" {
		addr = addrOverride
	}

	level := hclog.LevelFromString(cfg.Log.Level)
	logger := hclog.New(&hclog.LoggerOptions{Name: "bellum", Level: level})

	opts := []httpapi.Option{httpapi.WithLogger(logger)}
	if cfg.Ledger.DSN != "" {
		runLedger, err := ledger.Open(cfg.Ledger.DSN, logger)
		if err != nil {
			return fmt.Errorf("opening run ledger: %w", err)
		}
		defer runLedger.Close()
		if err := runLedger.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migrating run ledger: %w", err)
		}
		opts = append(opts, httpapi.WithRunLedger(runLedger))
	}

	server := httpapi.NewServer(buildRegistry(), estimator.NewPearsonEstimator(), opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return server.Start(ctx, addr)
}
