// Package ui holds the lipgloss palette used to style CLI output: headers, preview marks and
// coverage summaries.
package ui
