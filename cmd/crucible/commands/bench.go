package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crucible/core/internal/crucible/engine"
)

// newBenchCommand runs several independent, differently-seeded engines
// concurrently for a fixed number of generations and reports per-worker
// wall-clock time. It never touches the --db snapshot store — each run is
// an ephemeral throwaway engine (SPEC_FULL.md §11).
func newBenchCommand() *cobra.Command {
	var (
		workers int
		steps   int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run concurrent throwaway engines and report step throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()

			type result struct {
				worker     int
				runID      uuid.UUID
				elapsed    time.Duration
				population int
			}
			results := make([]result, workers)

			group, _ := errgroup.WithContext(context.Background())
			for w := 0; w < workers; w++ {
				w := w
				group.Go(func() error {
					runID := uuid.New()
					eng := engine.New(cfg, flagSeed+int64(w), log.With("run_id", runID.String()))
					eng.Reset()

					start := time.Now()
					for i := 0; i < steps; i++ {
						eng.Step()
					}
					results[w] = result{worker: w, runID: runID, elapsed: time.Since(start), population: eng.GetStats().Population}
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}

			pterm.Info.Println("bench results:")
			var total time.Duration
			for _, r := range results {
				pterm.Info.Printf("worker %d (run %s): %d steps in %s (population %d)\n", r.worker, r.runID, steps, r.elapsed, r.population)
				total += r.elapsed
			}
			pterm.Success.Printf("average wall time per worker: %s\n", total/time.Duration(workers))
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "number of concurrent engines to run")
	cmd.Flags().IntVar(&steps, "steps", 500, "number of generations each worker advances")
	return cmd
}
