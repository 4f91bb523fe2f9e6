package cmd

import (
	"context"
	"os"

	"emperror.dev/errors"
	"github.com/apex/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/priyxstudio/burrow/config"
	"github.com/priyxstudio/burrow/filesystem"
	"github.com/priyxstudio/burrow/report"
	"github.com/priyxstudio/burrow/system"
	"github.com/priyxstudio/burrow/view"
)

// runInteractive opens the explorer on a running scan. The explorer and the
// goroutine waiting for the scan to complete share a context, so leaving the
// explorer early also stops the wait.
func runInteractive(ctx context.Context, logger *log.Entry, s *filesystem.Scanner, device *system.DeviceUsage, cfg *config.Configuration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := view.New(s, device, cfg.RefreshInterval())
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return errors.WrapIf(err, "cmd: failed to run explorer")
		}
		return nil
	})
	g.Go(func() error {
		if err := s.Wait(gctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		logScanComplete(logger, s)
		program.Send(view.DoneMsg{})
		return nil
	})
	return g.Wait()
}

// runReport waits for the scan to finish, logging its progress every so
// often, then writes a report to stdout or the --output file.
func runReport(ctx context.Context, logger *log.Entry, id string, s *filesystem.Scanner, device *system.DeviceUsage, cfg *config.Configuration, format string) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.WrapIf(err, "cmd: failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.ProgressInterval()),
		gocron.NewTask(func() {
			p := s.Progress()
			logger.WithFields(log.Fields{
				"files":       p.Files(),
				"directories": p.Directories(),
				"active":      s.Active(),
				"queued":      s.Queued(),
				"current":     p.Current(),
			}).Info("scan in progress")
		}),
	)
	if err != nil {
		return errors.WrapIf(err, "cmd: failed to schedule progress job")
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.WithField("error", err).Debug("failed to stop scheduler")
		}
	}()

	if err := s.Wait(ctx); err != nil {
		return err
	}
	logScanComplete(logger, s)

	r := report.Build(id, s, device, report.Options{Depth: rootArgs.Depth, Top: rootArgs.Top})
	if rootArgs.Output != "" {
		if err := r.WriteFile(rootArgs.Output, format); err != nil {
			return err
		}
		logger.WithField("path", rootArgs.Output).Info("report written")
		return nil
	}
	return r.Write(os.Stdout, format)
}

func logScanComplete(logger *log.Entry, s *filesystem.Scanner) {
	p := s.Progress()
	logger.WithFields(log.Fields{
		"files":       p.Files(),
		"directories": p.Directories(),
		"duplicates":  p.Duplicates(),
		"failures":    p.Failures(),
		"size":        s.Root().Aggregate(),
		"duration":    p.Elapsed().String(),
	}).Info("scan complete")
}
