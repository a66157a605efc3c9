package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the crucible command tree (spec §6 public
// interface, exposed as CLI verbs).
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "crucible",
		Short: "The Crucible — an agent-based glyph simulation engine",
		Long: `The Crucible runs an agent-based simulation of self-organizing "glyphs":
entities that collide, entrain, reflex, and form attractor pools under a
seasonal schedule and a helix-driven breathing rhythm.

State persists between invocations in a local SQLite snapshot store, keyed
by --snapshot. Run "crucible reset" to seed a fresh simulation, then
"crucible step" repeatedly to advance it.`,
	}

	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a TOML config overriding the spec defaults")
	root.PersistentFlags().StringVar(&flagDBPath, "db", "crucible.db", "path to the SQLite snapshot store")
	root.PersistentFlags().StringVar(&flagSnapshot, "snapshot", "default", "name of the snapshot to load/save within the store")
	root.PersistentFlags().Int64Var(&flagSeed, "seed", 1, "PRNG seed for a freshly-reset engine")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newResetCommand())
	root.AddCommand(newStepCommand())
	root.AddCommand(newInjectConceptCommand())
	root.AddCommand(newShockwaveCommand())
	root.AddCommand(newStatsCommand())
	root.AddCommand(newSnapshotCommand())
	root.AddCommand(newBenchCommand())
	root.AddCommand(newWatchCommand())

	return root
}
