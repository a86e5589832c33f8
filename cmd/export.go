package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/formatter"
	"github.com/desertthunder/gaelon/internal/recommend"
	"github.com/desertthunder/gaelon/internal/services"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/desertthunder/gaelon/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the selected panels to files with a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var panels []dashboard.Panel
	for _, name := range cmd.StringSlice("panels") {
		p, err := dashboard.ParsePanel(name)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		panels = append(panels, p)
	}

	load := dashboard.DefaultLoadOptions()
	if load.Mood, err = recommend.ParseMood(cmd.String("mood")); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	if load.Range, err = services.ParseTimeRange(cmd.String("range")); err != nil {
		return err
	}

	// Fail before any worker starts when there is no token.
	if _, err := r.session.Token(ctx); err != nil {
		return err
	}

	engine := tasks.NewExportEngine(r.session.Panel, r.logger)
	engine.HTTPClient = r.httpClient

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := engine.Export(ctx, progress, panels, tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RateLimit,
		Load:       load,
	})
	close(progress)
	wg.Wait()

	if result != nil {
		r.writePlainln("Export: %d succeeded, %d failed", result.SuccessfulExports, result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %s\n", res.Panel, res.Message)
			}
		}
		if result.ManifestPath != "" {
			r.writePlain("✓ Files written to %s\n", result.OutputDirectory)
			r.writePlain("✓ Manifest: %s\n", result.ManifestPath)
		}
	}
	return err
}
