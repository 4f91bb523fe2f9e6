package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/burrow/config"
	"github.com/priyxstudio/burrow/loggers/cli"
	"github.com/priyxstudio/burrow/system"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [path]",
		Short: "Print information about this machine and the filesystem a scan would run on.",
		Args:  cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			initConfig()
			log.SetHandler(cli.Default)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return printInfo(cmd.OutOrStdout(), root)
		},
	}
}

func printInfo(w io.Writer, root string) error {
	info, err := system.GetInformation()
	if err != nil {
		return err
	}
	cfg := config.Get()
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Versions")
	fmt.Fprintf(w, "  burrow:         %s\n", info.Version)
	fmt.Fprintln(w, "\nSystem")
	fmt.Fprintf(w, "  OS:             %s (%s)\n", info.System.OS, info.System.OSType)
	fmt.Fprintf(w, "  Kernel:         %s\n", info.System.KernelVersion)
	fmt.Fprintf(w, "  Architecture:   %s\n", info.System.Architecture)
	fmt.Fprintf(w, "  CPU threads:    %d\n", info.System.CPUThreads)
	fmt.Fprintf(w, "  Memory:         %s\n", humanize.IBytes(info.System.MemoryBytes))
	fmt.Fprintln(w, "\nConfiguration")
	fmt.Fprintf(w, "  File:           %s\n", cfg.Path())
	fmt.Fprintf(w, "  Log directory:  %s\n", cfg.System.LogDirectory)
	fmt.Fprintf(w, "  Workers:        %d\n", cfg.Workers())
	fmt.Fprintf(w, "  Excludes:       %v\n", cfg.Scan.Exclude)
	fmt.Fprintln(w, "\nDevice")
	fmt.Fprintf(w, "  Path:           %s\n", abs)

	du, err := system.GetDeviceUsage(abs)
	if err != nil {
		log.WithField("error", err).Warn("failed to read device usage")
		return nil
	}
	fmt.Fprintf(w, "  Device:         %s\n", du.Device)
	fmt.Fprintf(w, "  Mountpoint:     %s\n", du.Mountpoint)
	fmt.Fprintf(w, "  Filesystem:     %s\n", du.Fstype)
	fmt.Fprintf(w, "  Usage:          %s of %s (%.1f%%)\n", humanize.IBytes(du.UsedSpace), humanize.IBytes(du.TotalSpace), du.UsedPercent)
	return nil
}
