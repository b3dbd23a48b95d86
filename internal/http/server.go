package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Lordsisodia/waveflow/internal/log"
	"github.com/Lordsisodia/waveflow/internal/service"
	"github.com/Lordsisodia/waveflow/pkg/storage"
)

func StartServer(port string, store storage.Store) error {
	svc := service.NewRunService(store)
	http.HandleFunc("/health", HealthHandler)
	http.HandleFunc("/runs", RunsHandler(svc))
	http.HandleFunc("/runs/", RunByIDHandler(svc))

	log.GetLogger().Infof("Starting waveflow server on :%s", port)
	return http.ListenAndServe(":"+port, nil)
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "waveflow server is running")
}

// RunsHandler lists run history.
func RunsHandler(svc *service.RunService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		listRunsHTTP(w, svc)
	}
}

// RunByIDHandler renders one run with its per-task outcomes.
func RunByIDHandler(svc *service.RunService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/runs/")
		if id == "" {
			http.Error(w, "Missing run id", http.StatusBadRequest)
			return
		}
		run, tasks, err := svc.GetRun(id)
		if err == storage.ErrNotFound {
			http.Error(w, fmt.Sprintf("Run %s not found", id), http.StatusNotFound)
			return
		}
		if err != nil {
			log.GetLogger().Errorf("Failed to get run %s: %v", id, err)
			http.Error(w, fmt.Sprintf("Failed to get run: %v", err), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "Run %s (%s): %s, %d/%d steps, %d waves\n",
			run.ID, run.PlanName, run.State, run.StepsCompleted, run.StepsTotal, run.WavesCompleted)
		for _, t := range tasks {
			line := fmt.Sprintf("- wave %d, %s: %s (%d attempts)", t.Wave, t.TaskID, t.Outcome, t.Attempts)
			if t.ErrorMsg != "" {
				line += fmt.Sprintf(" error: %s", t.ErrorMsg)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func listRunsHTTP(w http.ResponseWriter, svc *service.RunService) {
	runs, err := svc.ListRuns()
	if err != nil {
		log.GetLogger().Errorf("Failed to list runs: %v", err)
		http.Error(w, fmt.Sprintf("Failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs found.\n")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "- ID: %s, Plan: %s, State: %s, Created: %s\n",
			run.ID, run.PlanName, run.State, run.CreatedAt.Format(time.RFC3339))
	}
}
