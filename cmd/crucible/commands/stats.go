package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	var showEvents bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the engine's aggregate counters and observables",
		Long:  "Reports GetStats() for --snapshot without advancing it (spec §6).",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			st := s.eng.GetStats()
			obs := st.Observables

			pterm.Info.Printf("snapshot %q:\n", flagSnapshot)
			pterm.Info.Printf("generation      %d\n", st.Generation)
			pterm.Info.Printf("population      %d\n", st.Population)
			pterm.Info.Printf("concepts        %d\n", st.ConceptCount)
			pterm.Info.Printf("season          %s (counter %d)\n", st.Season, st.SeasonCounter)
			pterm.Info.Printf("attractors      %d\n", st.AttractorCount)
			pterm.Info.Printf("active shortcuts %d\n", st.ActiveShortcuts)
			if st.HelixStable {
				pterm.Success.Printf("helix           stable for %d generations\n", st.HelixStableFor)
			} else {
				pterm.Warning.Println("helix           not stable")
			}
			pterm.Info.Printf("mean H          %.3f (sigma %.3f)\n", obs.MeanH, obs.SigmaH)
			pterm.Info.Printf("psi             %.3f\n", obs.Psi)
			pterm.Info.Printf("free energy     %.3f\n", obs.FreeEnergy)
			pterm.Info.Printf("singularities   %d (%.1f%%)\n", obs.SingularityCount, obs.SingularityFrac*100)
			pterm.Info.Printf("phase/critical  %d / %d\n", obs.PhaseTransitions, obs.CriticalEvents)

			if showEvents {
				pterm.Info.Println("recent events:")
				for _, e := range s.eng.EventLog() {
					pterm.Println(e)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showEvents, "events", false, "also print the recent event log")
	return cmd
}
