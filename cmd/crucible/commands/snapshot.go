package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/crucible/core/internal/crucible/engine"
	"github.com/crucible/core/internal/crucible/snapstore"
)

// newSnapshotCommand groups the lower-level snapshot-store operations that
// operate on names other than --snapshot itself: copying state to another
// name, and listing what is stored (spec §4.15, SPEC_FULL.md §11).
func newSnapshotCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and copy snapshots in the --db store",
	}
	root.AddCommand(newSnapshotListCommand())
	root.AddCommand(newSnapshotCopyCommand())
	return root
}

func newSnapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every snapshot name in the --db store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapstore.Open(flagDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				pterm.Info.Println("no snapshots stored yet")
				return nil
			}
			for _, n := range names {
				pterm.Println(n)
			}
			return nil
		},
	}
}

func newSnapshotCopyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "copy SRC DST",
		Short: "Copy the state of snapshot SRC to snapshot DST",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := snapstore.Open(flagDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			eng := engine.New(cfg, flagSeed, newLogger())
			if err := store.Load(args[0], eng); err != nil {
				return err
			}
			if err := store.Save(args[1], time.Now().Unix(), eng); err != nil {
				return err
			}
			pterm.Success.Printf("copied snapshot %q -> %q\n", args[0], args[1])
			return nil
		},
	}
}
