package tasks

import (
	"fmt"

	"github.com/desertthunder/gaelon/internal/dashboard"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadPanel Phase = iota
	WritePanel
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case LoadPanel:
		return "load_panel"
	case WritePanel:
		return "write_panel"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func loadingPanelUpdate(step, total int, p dashboard.Panel) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPanel,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loading %s...", step, total, p.Title()),
	}
}

func exportCompletedUpdate(step, total int, res PanelExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritePanel,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, res.Panel.Title(), len(res.Files)),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res PanelExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritePanel,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Panel.Title(), res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s...", path),
	}
}
