package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/formatter"
	"github.com/desertthunder/gaelon/internal/models"
	"github.com/desertthunder/gaelon/internal/shared"
	"golang.org/x/time/rate"
)

const manifestName = "export_manifest.json"

// Export writes each panel to OutputDir concurrently with rate limiting and progress tracking.
//
// Each panel is written to {panel}.{ext}. Failed panels are recorded in the result and do not stop the export,
// except for session errors, which cancel the remaining work and are returned alongside the partial result.
func (e *ExportEngine) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	panels []dashboard.Panel,
	opts ExportOpts,
) (*ExportResult, error) {
	if e.load == nil {
		return nil, fmt.Errorf("%w: panel loader not initialized", shared.ErrServiceUnavailable)
	}
	if len(panels) == 0 {
		panels = dashboard.Panels
	}

	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("gaelon_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > len(panels) {
		opts.NumWorkers = len(panels)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		ExportedAt:      e.now().UTC(),
		TotalPanels:     len(panels),
		Results:         make([]PanelExportResult, 0, len(panels)),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan dashboard.Panel, len(panels))
	results := make(chan PanelExportResult, len(panels))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, p := range panels {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(prog, loadingPanelUpdate(i+1, len(panels), p))
			jobs <- p
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var sessionErr error
	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(panels), res))
			continue
		}

		result.FailedExports++
		e.sendProgress(prog, exportFailedUpdate(completed, len(panels), res))
		if sessionErr == nil && isSessionError(res.Error) {
			sessionErr = res.Error
			cancel()
		}
	}

	order := func(p dashboard.Panel) int { return slices.Index(dashboard.Panels, p) }
	slices.SortStableFunc(result.Results, func(a, b PanelExportResult) int {
		return order(a.Panel) - order(b.Panel)
	})

	if sessionErr != nil {
		return result, sessionErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	e.sendProgress(prog, manifestUpdate(manifestPath))
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker exports panels from the jobs channel until it is drained or ctx is cancelled.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan dashboard.Panel,
	results chan<- PanelExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for p := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportPanel(ctx, p, opts)
	}
}

// exportPanel loads and writes a single panel.
func (e *ExportEngine) exportPanel(ctx context.Context, p dashboard.Panel, opts ExportOpts) PanelExportResult {
	start := time.Now()
	logger := shared.WithLogger(e.logger, "panel", p)
	res := PanelExportResult{Panel: p, Files: []string{}}
	fail := func(err error) PanelExportResult {
		res.Error = err
		res.Message = err.Error()
		res.Elapsed = time.Since(start)
		logger.Warn("panel export failed", "error", err)
		return res
	}

	data, err := e.load(ctx, p, opts.Load)
	if err != nil {
		return fail(fmt.Errorf("failed to load %s: %w", p, err))
	}

	var image string
	if opts.Format == formatter.Markdown {
		image = e.saveProfileImage(ctx, data, opts.OutputDir)
		if image != "" {
			res.Files = append(res.Files, filepath.Join(opts.OutputDir, image))
		}
	}

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.%s", p, opts.Format.Ext()))
	if image != "" {
		out, err := formatter.ExportToMarkdown(data, image)
		if err == nil {
			err = os.WriteFile(path, out, 0644)
		}
		if err != nil {
			return fail(fmt.Errorf("markdown export failed: %w", err))
		}
	} else if err := formatter.WriteExport(data, opts.Format, path); err != nil {
		return fail(fmt.Errorf("%s export failed: %w", opts.Format, err))
	}

	res.Files = append(res.Files, path)
	res.Success = true
	res.Elapsed = time.Since(start)
	logger.Debug("panel exported", "path", path, "elapsed", res.Elapsed)
	return res
}

// saveProfileImage downloads the user's avatar next to a Markdown profile export.
// It returns the file name, or "" when there is no image or the download failed.
func (e *ExportEngine) saveProfileImage(ctx context.Context, data any, dir string) string {
	profile, ok := data.(*dashboard.ProfilePanel)
	if !ok || profile == nil {
		return ""
	}

	url := profile.User.ImageURL()
	if url == models.PlaceholderImage {
		return ""
	}

	img, err := formatter.DownloadImage(ctx, e.HTTPClient, url)
	if err != nil {
		e.logger.Warn("failed to download profile image", "error", err)
		return ""
	}

	const name = "profile.jpg"
	if err := os.WriteFile(filepath.Join(dir, name), img, 0644); err != nil {
		e.logger.Warn("failed to save profile image", "error", err)
		return ""
	}
	return name
}
