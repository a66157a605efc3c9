package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Seed a fresh simulation under --snapshot",
		Long:  "Discards any existing state under --snapshot and seeds a new engine with 8 random glyphs at generation 0 (spec §6).",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			s.eng.Reset()
			if err := s.save(time.Now().Unix()); err != nil {
				return err
			}
			pterm.Success.Printf("reset snapshot %q: seeded 8 glyphs at generation 0\n", flagSnapshot)
			return nil
		},
	}
}
