package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newStepCommand() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Advance the simulation by one or more generations",
		Long:  "Runs Engine.Step() n times against --snapshot, then saves the result (spec §4.14).",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if s.fresh {
				pterm.Info.Println("no snapshot found; seeded a fresh engine before stepping")
			}
			for i := 0; i < n; i++ {
				s.eng.Step()
			}
			if err := s.save(time.Now().Unix()); err != nil {
				return err
			}
			stats := s.eng.GetStats()
			pterm.Success.Printf("stepped %d generations -> gen=%d population=%d season=%s\n", n, stats.Generation, stats.Population, stats.Season)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 1, "number of generations to advance")
	return cmd
}
