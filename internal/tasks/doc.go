// Package tasks runs long dashboard operations with real-time progress reporting.
//
// # Export
//
// [ExportEngine.Export] writes every requested panel to disk:
//
//  1. A producer queues panels, waiting on a [rate.Limiter] between loads
//  2. A bounded worker pool loads each panel through a [PanelLoader] and
//     renders it with the formatter package
//  3. Results are gathered into an [ExportResult] and summarized in
//     export_manifest.json
//
// A failed panel is recorded and the export continues. A rejected or missing
// token stops the export early, since every remaining panel would fail the
// same way.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for richer rendering. Updates use select with default so a
// slow reader never stalls an export.
package tasks
