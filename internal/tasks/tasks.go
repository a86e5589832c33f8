// package tasks implements long-running dashboard operations.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/formatter"
	"github.com/desertthunder/gaelon/internal/shared"
)

// PanelLoader loads one panel; [dashboard.Session.Panel] satisfies it.
type PanelLoader func(ctx context.Context, p dashboard.Panel, opts dashboard.LoadOptions) (any, error)

// ExportOpts contains configuration for panel exports.
type ExportOpts struct {
	Format     formatter.Format      // Export format: json, csv, markdown, txt
	OutputDir  string                // Base output directory (default: gaelon_export_{epoch})
	NumWorkers int                   // Concurrent workers (default: 2)
	RateLimit  float64               // Panel loads per second (default: 5)
	Load       dashboard.LoadOptions // Mood and time range of the parameterised panels
}

// PanelExportResult is the outcome of exporting a single panel.
type PanelExportResult struct {
	Panel   dashboard.Panel `json:"panel"`
	Files   []string        `json:"files"`
	Success bool            `json:"success"`
	Error   error           `json:"-"`
	Message string          `json:"error,omitempty"`
	Elapsed time.Duration   `json:"elapsed_ns"`
}

// ExportResult summarizes an export; it doubles as the manifest.
type ExportResult struct {
	Format            formatter.Format    `json:"format"`
	OutputDirectory   string              `json:"output_directory"`
	ManifestPath      string              `json:"-"`
	ExportedAt        time.Time           `json:"exported_at"`
	TotalPanels       int                 `json:"total_panels"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	Results           []PanelExportResult `json:"results"`
}

// ExportEngine writes dashboard panels to disk.
type ExportEngine struct {
	load PanelLoader
	// HTTPClient downloads profile images for Markdown exports; nil uses the formatter default.
	HTTPClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// NewExportEngine creates an [ExportEngine] loading panels through load.
func NewExportEngine(load PanelLoader, logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportEngine{load: load, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// isSessionError reports whether err means no further panel can load.
func isSessionError(err error) bool {
	return errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, auth.ErrAuthMissing)
}
