// Package cmd wires diskalloc's Cobra command tree: arena and page
// subcommands over the diskarena/pagealloc packages, a live watch
// dashboard, and the demo drivers that port the original C++ sample
// programs.
package cmd

import (
	"fmt"
	"os"

	"github.com/arenafs/diskalloc/internal/config"
	"github.com/arenafs/diskalloc/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var (
	jsonFlag     bool
	verboseFlag  bool
	quietFlag    bool
	logLevelFlag string
	configDir    string
	log          = logrus.New()
)

// NewRootCmd builds the full diskalloc command tree.
func NewRootCmd() *cobra.Command {
	root := newRootCmd()
	addArenaCommands(root)
	addPageCommands(root)
	addComposeCommands(root)
	addWatchCommand(root)
	addConfigCommands(root)
	return root
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "diskalloc",
		Short:         "Disk-backed memory allocator",
		Long:          "diskalloc — a two-tier disk-backed allocator: DiskArena maps whole files, PageAllocator sub-allocates within one.",
		Version:       fmt.Sprintf("diskalloc v%s", Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verboseFlag && quietFlag {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			if jsonFlag {
				quietFlag = true
			}
			output.SetFlags(jsonFlag, quietFlag, verboseFlag)

			config.SetConfigDir(configDir)
			level, err := logrus.ParseLevel(config.ResolveLogLevel(logLevelFlag))
			if err != nil {
				level = logrus.WarnLevel
			}
			if verboseFlag {
				level = logrus.DebugLevel
			}
			log.SetLevel(level)
			return nil
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pflags := root.PersistentFlags()
	pflags.BoolVarP(&jsonFlag, "json", "j", false, "Output as JSON")
	pflags.BoolVarP(&verboseFlag, "verbose", "v", false, "Extra detail to stderr")
	pflags.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	pflags.StringVar(&logLevelFlag, "log-level", "", "Log level (trace|debug|info|warn|error)")
	pflags.StringVar(&configDir, "config-dir", "", "Override config directory (default: ~/.diskalloc)")

	if v := os.Getenv("DISKALLOC_JSON"); v == "1" {
		jsonFlag = true
	}

	return root
}

// Execute runs the root command, reading os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
