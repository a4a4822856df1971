// package formatter renders playlists, tracks and preview scan reports as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/desertthunder/tunesub/internal/tasks"
)

// Output formats accepted by the render functions.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case "":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	case "txt":
		return FormatText, nil
	case FormatText, FormatMarkdown, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format must be one of %s", shared.ErrInvalidFlag, strings.Join(Formats, ", "))
	}
}

// RenderPlaylists renders a page of playlist summaries.
func RenderPlaylists(items []models.PlaylistSummary, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(items, true)
	case FormatCSV:
		return PlaylistsToCSV(items)
	case FormatMarkdown:
		return PlaylistsToMarkdown(items), nil
	default:
		return PlaylistsToText(items), nil
	}
}

// RenderTracks renders a playlist with its tracks.
func RenderTracks(detail *models.PlaylistDetail, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(detail, true)
	case FormatCSV:
		return TracksToCSV(detail)
	case FormatMarkdown:
		return TracksToMarkdown(detail, ""), nil
	default:
		return TracksToText(detail), nil
	}
}

// RenderScanReport renders a preview scan report.
func RenderScanReport(report *tasks.ScanReport, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(report, true)
	case FormatCSV:
		return ScanReportToCSV(report)
	case FormatMarkdown:
		return ScanReportToMarkdown(report), nil
	default:
		return ScanReportToText(report), nil
	}
}

// PlaylistsToText lists playlists one per line as "n. Name by Owner (N tracks) [id]".
func PlaylistsToText(items []models.PlaylistSummary) []byte {
	var buf bytes.Buffer
	for i, p := range items {
		buf.WriteString(fmt.Sprintf("%d. %s by %s (%d tracks) [%s]\n", i+1, p.Name, p.OwnerLabel, p.TrackCount, p.ID))
	}
	return buf.Bytes()
}

// PlaylistsToMarkdown renders playlists as a Markdown table.
func PlaylistsToMarkdown(items []models.PlaylistSummary) []byte {
	var buf bytes.Buffer
	buf.WriteString("| # | Name | Owner | Tracks | ID |\n")
	buf.WriteString("|---|------|-------|--------|----|\n")
	for i, p := range items {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %d | `%s` |\n", i+1, escapeCell(p.Name), escapeCell(p.OwnerLabel), p.TrackCount, p.ID))
	}
	return buf.Bytes()
}

// PlaylistsToCSV converts playlists to CSV with columns: ID, Name, Owner, Tracks, Image
func PlaylistsToCSV(items []models.PlaylistSummary) ([]byte, error) {
	records := make([][]string, 0, len(items))
	for _, p := range items {
		records = append(records, []string{p.ID, p.Name, p.OwnerLabel, strconv.FormatUint(uint64(p.TrackCount), 10), p.ImageURL})
	}
	return writeCSV([]string{"ID", "Name", "Owner", "Tracks", "Image"}, records)
}

// TracksToText converts a playlist to plain text format
func TracksToText(detail *models.PlaylistDetail) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", detail.Playlist.Name))
	if detail.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", detail.Playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(detail.Tracks)))

	for i, tr := range detail.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", i+1, tr.Artists(), tr.Title, shared.FormatDuration(tr.DurationMS)))
	}
	return buf.Bytes()
}

// TracksToMarkdown converts a playlist to Markdown with an optional cover image
func TracksToMarkdown(detail *models.PlaylistDetail, imageFilename string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", detail.Playlist.Name))
	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}
	if detail.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", detail.Playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("**Owner**: %s\n", detail.Playlist.OwnerLabel))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(detail.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, tr := range detail.Tracks {
		albumPart := ""
		if tr.AlbumTitle != "" {
			albumPart = fmt.Sprintf(" (%s)", tr.AlbumTitle)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, tr.Artists(), tr.Title, albumPart, shared.FormatDuration(tr.DurationMS)))
	}
	return buf.Bytes()
}

// TracksToCSV converts tracks to CSV with columns: ID, Title, Artist, Album, Duration
func TracksToCSV(detail *models.PlaylistDetail) ([]byte, error) {
	records := make([][]string, 0, len(detail.Tracks))
	for _, tr := range detail.Tracks {
		records = append(records, []string{tr.ID, tr.Title, tr.Artists(), tr.AlbumTitle, shared.FormatDuration(tr.DurationMS)})
	}
	return writeCSV([]string{"ID", "Title", "Artist", "Album", "Duration"}, records)
}

// ScanReportToText summarizes a scan and lists tracks with ✓ or ✗.
func ScanReportToText(report *tasks.ScanReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.Playlist.Name))
	buf.WriteString(fmt.Sprintf("Previews: %d/%d (%.1f%%)\n\n", report.Found, report.Total, report.Coverage))
	for i, res := range report.Results {
		mark := "✗"
		if res.Outcome.Found {
			mark = "✓"
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s\n", i+1, mark, res.Track.Artists(), res.Track.Title))
	}
	return buf.Bytes()
}

// ScanReportToMarkdown renders the scan summary and the tracks missing a preview.
func ScanReportToMarkdown(report *tasks.ScanReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Preview coverage: %s\n\n", report.Playlist.Name))
	buf.WriteString(fmt.Sprintf("**Found**: %d\n", report.Found))
	buf.WriteString(fmt.Sprintf("**Missing**: %d\n", report.Missing))
	buf.WriteString(fmt.Sprintf("**Coverage**: %.1f%%\n", report.Coverage))

	missing := report.MissingTracks()
	if len(missing) == 0 {
		return buf.Bytes()
	}
	buf.WriteString("\n## Missing previews\n\n")
	for _, tr := range missing {
		buf.WriteString(fmt.Sprintf("- %s - %s\n", tr.Artists(), tr.Title))
	}
	return buf.Bytes()
}

// ScanReportToCSV converts scan results to CSV with columns: ID, Title, Artist, Preview
func ScanReportToCSV(report *tasks.ScanReport) ([]byte, error) {
	records := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		records = append(records, []string{res.Track.ID, res.Track.Title, res.Track.Artists(), res.Outcome.Locator})
	}
	return writeCSV([]string{"ID", "Title", "Artist", "Preview"}, records)
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md for a playlist, plus {dir}/cover.jpg when the
// playlist has an image that can be downloaded.
//
// Directory name defaults to the playlist ID. A failed cover download is reported through warn
// and does not fail the export.
func WriteMarkdownExport(client *http.Client, detail *models.PlaylistDetail, outputDir string, warn func(error)) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = detail.Playlist.ID
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverFilename string
	if detail.Playlist.ImageURL != "" {
		if err := saveCover(client, detail.Playlist.ImageURL, filepath.Join(outputDir, "cover.jpg")); err != nil {
			if warn != nil {
				warn(err)
			}
		} else {
			coverFilename = "cover.jpg"
			result.CoverImage = filepath.Join(outputDir, coverFilename)
			result.Files = append(result.Files, result.CoverImage)
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, TracksToMarkdown(detail, coverFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

func saveCover(client *http.Client, url, path string) error {
	data, err := DownloadImage(client, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save cover image: %w", err)
	}
	return nil
}
