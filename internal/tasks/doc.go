// Package tasks runs preview lookups across whole playlists with real-time progress reporting.
//
// # Preview Scan
//
// [PreviewScanner.Scan] fetches a playlist's tracks through a [services.TrackLister], then resolves
// every track with a bounded worker pool. Each worker calls the shared [PreviewResolver], so
// outcomes land in the same cache the browse view uses and a later Play needs no catalog search.
// The returned [ScanReport] keeps results in playlist order and counts found and missing previews.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates. The [ProgressUpdate] struct
// contains phase, step counters, messages, and optional data. Updates use select with default so
// a slow reader never stalls the scan.
package tasks
