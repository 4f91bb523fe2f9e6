package cmd

import (
	"context"
	log2 "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"emperror.dev/errors"
	"github.com/NYTimes/logrotate"
	"github.com/apex/log"
	"github.com/apex/log/handlers/multi"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/burrow/config"
	"github.com/priyxstudio/burrow/filesystem"
	"github.com/priyxstudio/burrow/internal/pool"
	"github.com/priyxstudio/burrow/loggers/cli"
	"github.com/priyxstudio/burrow/report"
	"github.com/priyxstudio/burrow/system"
)

var (
	configPath = config.DefaultLocation
	debug      = false
)

var rootArgs struct {
	Workers int
	Exclude []string
	Report  string
	Output  string
	Depth   int
	Top     int
}

var rootCommand = &cobra.Command{
	Use:   "burrow [path]",
	Short: "Explore where the disk space under a directory is going.",
	Long: `Scans the given directory, or the working directory, and shows how much
space each entry takes on disk while the scan is still running. Hard links are
only counted once and other mounted filesystems are not entered.`,
	Args: cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		initConfig()
	},
	Run: rootCmdRun,
}

func Execute() {
	if err := rootCommand.Execute(); err != nil {
		log2.Fatalf("failed to execute command: %s", err)
	}
}

func init() {
	rootCommand.PersistentFlags().StringVar(&configPath, "config", config.DefaultLocation, "set the location for the configuration file")
	rootCommand.PersistentFlags().BoolVar(&debug, "debug", false, "pass in order to run burrow in debug mode")

	rootCommand.Flags().IntVarP(&rootArgs.Workers, "workers", "w", 0, "number of directories to read in parallel (defaults to scan.workers)")
	rootCommand.Flags().StringSliceVarP(&rootArgs.Exclude, "exclude", "e", nil, "gitignore style pattern of entries to skip, may be repeated")
	rootCommand.Flags().StringVar(&rootArgs.Report, "report", "", "print a report instead of opening the explorer (text or json)")
	rootCommand.Flags().StringVarP(&rootArgs.Output, "output", "o", "", "write the report to a file instead of stdout, gzip compressed if it ends in .gz")
	rootCommand.Flags().IntVar(&rootArgs.Depth, "depth", 1, "number of directory levels to include in a report")
	rootCommand.Flags().IntVar(&rootArgs.Top, "top", 20, "maximum number of entries per directory in a report, 0 for all")

	rootCommand.AddCommand(newVersionCommand())
	rootCommand.AddCommand(newInfoCommand())
	rootCommand.AddCommand(newConfigCommand())
}

func rootCmdRun(cmd *cobra.Command, args []string) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	if cmd.Flags().Changed("workers") || len(rootArgs.Exclude) > 0 {
		config.Update(func(c *config.Configuration) {
			if rootArgs.Workers > 0 {
				c.Scan.Workers = rootArgs.Workers
			}
			c.Scan.Exclude = append(c.Scan.Exclude, rootArgs.Exclude...)
		})
	}
	cfg := config.Get()

	interactive := rootArgs.Report == "" && rootArgs.Output == "" && isatty.IsTerminal(os.Stdout.Fd())
	// The explorer owns the terminal, so log lines only go to the file.
	initLogging(!interactive)

	format, err := reportFormat(rootArgs.Report, interactive)
	if err != nil {
		log.WithField("error", err).Fatal("invalid report format")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id := uuid.New().String()
	logger := log.WithField("scan_id", id)

	p := pool.New(cfg.Workers())
	defer p.Stop()
	s := filesystem.NewScanner(p,
		filesystem.WithExcludes(cfg.Scan.Exclude),
		filesystem.WithReadLimit(cfg.Scan.ReadLimit),
		filesystem.WithLogger(logger),
	)
	node, err := s.Start(root)
	if err != nil {
		logger.WithField("error", err).Fatal("failed to start scan")
	}

	device, err := system.GetDeviceUsage(node.Path())
	if err != nil {
		logger.WithField("error", err).Debug("failed to read device usage")
		device = nil
	}

	if interactive {
		err = runInteractive(ctx, logger, s, device, cfg)
	} else {
		err = runReport(ctx, logger, id, s, device, cfg, format)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithField("error", err).Fatal("scan failed")
	}
}

// reportFormat returns the format a report is written in, rejecting unknown
// formats before any scanning starts.
func reportFormat(format string, interactive bool) (string, error) {
	if err := report.CheckFormat(format); err != nil {
		return "", err
	}
	if !interactive && format == "" {
		return report.FormatText, nil
	}
	return format, nil
}

// Reads the configuration from the disk and then sets up the global singleton
// with all the configuration values.
func initConfig() {
	resolveConfigPath()
	if err := config.FromFile(configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log2.Fatalf("cmd/root: no configuration file found at %s, create one with \"burrow config init\"", configPath)
		}
		log2.Fatalf("cmd/root: error while reading configuration file: %s", err)
	}
	if debug && !config.Get().Debug {
		config.SetDebugViaFlag(debug)
	}
}

func resolveConfigPath() {
	if filepath.IsAbs(configPath) {
		return
	}
	p, err := filepath.Abs(configPath)
	if err != nil {
		log2.Fatalf("cmd/root: failed to resolve configuration path: %s", err)
	}
	configPath = p
}

// Configures the global logger for Burrow so that it writes to the log file,
// and to the terminal as well when it is not taken by the explorer.
func initLogging(terminal bool) {
	dir := config.Get().System.LogDirectory
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log2.Fatalf("cmd/root: failed to create log directory: %s", err)
	}
	p := filepath.Join(dir, "burrow.log")
	w, err := logrotate.NewFile(p)
	if err != nil {
		log2.Fatalf("cmd/root: failed to create burrow log: %s", err)
	}

	log.SetLevel(log.InfoLevel)
	if config.Get().Debug {
		log.SetLevel(log.DebugLevel)
	}
	file := cli.New(w.File, false)
	file.Stacktraces = config.Get().Debug
	if terminal {
		cli.Default.Stacktraces = config.Get().Debug
		log.SetHandler(multi.New(cli.Default, file))
	} else {
		log.SetHandler(file)
	}
	log.WithField("path", p).Debug("writing log files to disk")
}
