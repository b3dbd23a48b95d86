package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	internal_http "github.com/Lordsisodia/waveflow/internal/http"
	"github.com/Lordsisodia/waveflow/internal/loader"
	"github.com/Lordsisodia/waveflow/internal/log"
	"github.com/Lordsisodia/waveflow/internal/service"
	internal_storage "github.com/Lordsisodia/waveflow/internal/storage"
	"github.com/Lordsisodia/waveflow/pkg/models"
	"github.com/Lordsisodia/waveflow/pkg/scheduler"
	"github.com/Lordsisodia/waveflow/pkg/storage"
)

func SetupCLI(rootCmd *cobra.Command) {
	planCmd := &cobra.Command{
		Use:   "plan [file]",
		Short: "Show the wave grouping of a plan without executing it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p := loadPlan(args[0])
			groups, err := scheduler.Plan(p.Tasks)
			if err != nil {
				log.GetLogger().Errorf("Failed to schedule plan: %v", err)
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Plan '%s': %d tasks in %d waves\n", p.Name, len(p.Tasks), len(groups))
			for _, g := range groups {
				ids := make([]string, len(g.Tasks))
				for i, t := range g.Tasks {
					ids[i] = t.ID
				}
				fmt.Fprintf(os.Stdout, "  wave %d: %s\n", g.Wave, strings.Join(ids, ", "))
			}
		},
	}

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a plan wave by wave",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			p := loadPlan(args[0])
			store := initStore(dbConnStr)
			defer store.Close()
			svc := service.NewRunService(store)

			res, err := svc.ExecutePlan(context.Background(), p.Name, p.Tasks, p.Options, shellWork)
			if err != nil {
				log.GetLogger().Errorf("Failed to execute plan: %v", err)
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			printResult(p.Name, res)
			if res.State != models.StateCompleted {
				os.Exit(1)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List run history",
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			store := initStore(dbConnStr)
			defer store.Close()
			svc := service.NewRunService(store)
			listRuns(svc)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run history over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			port, err := cmd.Flags().GetString("port")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving port flag: %v", err)
				os.Exit(1)
			}
			store := initStore(dbConnStr)
			defer store.Close()
			if err := internal_http.StartServer(port, store); err != nil {
				log.GetLogger().Errorf("Server stopped: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "8080", "Port to listen on")

	rootCmd.AddCommand(planCmd, runCmd, listCmd, serveCmd)
}

// shellWork is the unit of work behind `waveflow run`: tasks carrying a
// `command` metadata entry are run through the shell, everything else
// is a no-op step.
func shellWork(ctx context.Context, t models.Task) (interface{}, error) {
	command, ok := t.Metadata["command"].(string)
	if !ok || command == "" {
		log.GetLogger().Infof("Task %s has no command, treating as no-op", t.ID)
		return nil, nil
	}
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func printResult(planName string, res *models.ExecutionResult) {
	fmt.Fprintf(os.Stdout, "Plan '%s' finished: %s (%d/%d steps, %d waves)\n",
		planName, res.State, res.StepsCompleted, res.StepsTotal, res.WavesCompleted)
	for _, w := range res.WaveDetails {
		fmt.Fprintf(os.Stdout, "  wave %d: %d ok, %d failed, %d skipped in %s\n",
			w.WaveNumber, w.SuccessCount, w.FailureCount, w.SkippedCount, w.Duration)
	}
	for id, err := range res.Errors {
		fmt.Fprintf(os.Stdout, "  error %s: %v\n", id, err)
	}
}

func listRuns(svc *service.RunService) {
	runs, err := svc.ListRuns()
	if err != nil {
		log.GetLogger().Errorf("Failed to list runs: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs found.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "- ID: %s, Plan: %s, State: %s, Steps: %d/%d\n",
			r.ID, r.PlanName, r.State, r.StepsCompleted, r.StepsTotal)
	}
}

func loadPlan(path string) *loader.Plan {
	p, err := loader.LoadFile(path)
	if err != nil {
		log.GetLogger().Errorf("Failed to load plan: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return p
}

func initStore(dbConnStr string) storage.Store {
	if dbConnStr == "" {
		log.GetLogger().Infof("No --db provided, run history will not be persisted")
		return storage.NewMockStore()
	}
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to connect to db: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to connect to db: %v\n", err)
		os.Exit(1)
	}
	return store
}
