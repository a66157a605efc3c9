package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newShockwaveCommand() *cobra.Command {
	var (
		x, y  float64
		color string
	)
	cmd := &cobra.Command{
		Use:   "shockwave",
		Short: "Trigger a radial shockwave at (x, y)",
		Long:  "Starts a 400px expanding ring and pushes every glyph radially outward (spec §6).",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			s.eng.TriggerShockwave(x, y, color)
			if err := s.save(time.Now().Unix()); err != nil {
				return err
			}
			pterm.Success.Printf("shockwave triggered at (%.1f, %.1f)\n", x, y)
			return nil
		},
	}
	cmd.Flags().Float64Var(&x, "x", 600, "shockwave origin x")
	cmd.Flags().Float64Var(&y, "y", 300, "shockwave origin y")
	cmd.Flags().StringVar(&color, "color", "#FFFFFF", "shockwave display color")
	return cmd
}
