package cmd

import (
	"fmt"

	"github.com/arenafs/diskalloc/internal/config"
	"github.com/arenafs/diskalloc/internal/diskarena"
	"github.com/arenafs/diskalloc/internal/output"
	"github.com/spf13/cobra"
)

func addArenaCommands(root *cobra.Command) {
	arena := &cobra.Command{
		Use:   "arena",
		Short: "Inspect and exercise a DiskArena",
	}

	var folderFlag string
	arena.PersistentFlags().StringVar(&folderFlag, "folder", "", "Arena folder (default: resolved from config)")

	statCmd := &cobra.Command{
		Use:   "stat",
		Short: "Report the arena folder's available capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.ResolveArenaFolder(folderFlag)
			a, err := diskarena.New(dir, diskarena.Config{Logger: log})
			if err != nil {
				return err
			}
			defer a.Close()

			capacity, err := a.Capacity()
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.PrintJSON(cmd.OutOrStdout(), map[string]any{
					"folder":    dir,
					"capacity":  capacity,
					"live":      a.LiveCount(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "folder:   %s\ncapacity: %d bytes\nlive:     %d\n", dir, capacity, a.LiveCount())
			return nil
		},
	}

	var sizeFlag uint64
	var keepFlag bool
	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Allocate, write, flush, and free a single region (ports the original demo driver)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.ResolveArenaFolder(folderFlag)
			a, err := diskarena.New(dir, diskarena.Config{Logger: log})
			if err != nil {
				return err
			}
			defer a.Close()

			h := a.AllocateZeroed(sizeFlag, 1)
			if h.IsNull() {
				return fmt.Errorf("arena demo: allocate %d bytes in %s failed", sizeFlag, dir)
			}
			copy(h.Bytes(), []byte("Hello World. "))
			if err := h.Flush(true); err != nil {
				return err
			}

			status := a.Free(h, !keepFlag)

			if output.IsJSON() {
				return output.PrintJSON(cmd.OutOrStdout(), map[string]any{
					"folder": dir,
					"size":   sizeFlag,
					"status": status.String(),
					"kept":   keepFlag,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "allocated %d bytes in %s, wrote prefix, flushed, freed: %s\n", sizeFlag, dir, status)
			return nil
		},
	}
	demoCmd.Flags().Uint64Var(&sizeFlag, "size", 1024, "Region size in bytes")
	demoCmd.Flags().BoolVar(&keepFlag, "keep", false, "Keep the backing file instead of deleting it on free")

	arena.AddCommand(statCmd, demoCmd)
	root.AddCommand(arena)
}
