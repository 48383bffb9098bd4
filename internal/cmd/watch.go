package cmd

import (
	"math/rand"
	"time"
	"unsafe"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/arenafs/diskalloc/internal/config"
	"github.com/arenafs/diskalloc/internal/pagealloc"
	"github.com/arenafs/diskalloc/internal/tui"
)

func addWatchCommand(root *cobra.Command) {
	var regionSizeFlag uint64
	var simulateFlag bool

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Render a live view of a PageAllocator's free list",
		RunE: func(cmd *cobra.Command, args []string) error {
			size := config.ResolveRegionSize(regionSizeFlag)
			region := make([]byte, size)
			pa, err := pagealloc.New(region, pagealloc.Config{Logger: log})
			if err != nil {
				return err
			}

			if simulateFlag {
				stop := simulateLoad(pa)
				defer close(stop)
			}

			p := tea.NewProgram(tui.NewDashboard(pa), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	watchCmd.Flags().Uint64Var(&regionSizeFlag, "region-size", 0, "Region size in bytes (default: resolved from config)")
	watchCmd.Flags().BoolVar(&simulateFlag, "simulate", true, "Allocate and free randomly sized blocks in the background so the dashboard has something to show")

	root.AddCommand(watchCmd)
}

// simulateLoad runs a background goroutine that randomly allocates and
// frees blocks against pa so `diskalloc watch` has live fragmentation to
// render without a real workload attached. Closing the returned channel
// stops it.
func simulateLoad(pa *pagealloc.PageAllocator) chan struct{} {
	stop := make(chan struct{})
	go func() {
		rng := rand.New(rand.NewSource(1))
		var live []unsafe.Pointer
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if len(live) == 0 || rng.Intn(2) == 0 {
					size := 64 + rng.Intn(4096)
					if p := pa.Allocate(size); p != nil {
						live = append(live, p)
					}
				} else {
					i := rng.Intn(len(live))
					pa.Free(live[i])
					live = append(live[:i], live[i+1:]...)
				}
			}
		}
	}()
	return stop
}
