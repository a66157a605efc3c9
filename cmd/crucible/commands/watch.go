package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// newWatchCommand steps the engine repeatedly, printing a one-line status
// after every generation, and saves once at the end — useful for observing
// a long run without re-invoking the CLI per step.
func newWatchCommand() *cobra.Command {
	var (
		n        int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Step the engine n times, printing status after each generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}

			spinner, _ := pterm.DefaultSpinner.Start("advancing " + flagSnapshot)
			var st = s.eng.GetStats()
			for i := 0; i < n; i++ {
				s.eng.Step()
				st = s.eng.GetStats()
				spinner.UpdateText(fmt.Sprintf(
					"gen=%d population=%d season=%s attractors=%d meanH=%.2f",
					st.Generation, st.Population, st.Season, st.AttractorCount, st.Observables.MeanH,
				))
				if interval > 0 {
					time.Sleep(interval)
				}
			}
			spinner.Success(fmt.Sprintf("reached generation %d", st.Generation))

			return s.save(time.Now().Unix())
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 100, "number of generations to advance")
	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between generations")
	return cmd
}
