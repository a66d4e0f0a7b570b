// Package report writes per-run artifacts: chart data files consumed by
// the dashboard renderer and the markdown executive summary. Rendering
// itself happens outside this system; only the artifact contract lives
// here. All writes are atomic so a crashed run never leaves a partial
// artifact behind.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/nexus-analytics/decision-intel/internal/core"
)

// Writer generates run artifacts under fixed output directories.
type Writer struct {
	chartsDir  string
	reportsDir string

	// now is swappable for tests.
	now func() time.Time
}

// NewWriter creates a report writer, creating the output directories if
// needed.
func NewWriter(chartsDir, reportsDir string) (*Writer, error) {
	for _, dir := range []string{chartsDir, reportsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating artifact directory %s: %w", dir, err)
		}
	}
	return &Writer{chartsDir: chartsDir, reportsDir: reportsDir, now: time.Now}, nil
}

// ChartViews are the three derived views visualized per run.
type ChartViews struct {
	CategoryTotals []core.CategoryTotal `json:"category_totals"`
	RiskScores     []float64            `json:"risk_scores"`
	SegmentAssets  []core.SegmentAssets `json:"segment_assets"`
}

// WriteCharts writes one chart data artifact per view and returns the
// paths in a fixed order: spending, risk distribution, asset allocation.
func (w *Writer) WriteCharts(runID core.RunID, views ChartViews) ([]string, error) {
	charts := []struct {
		name  string
		title string
		data  any
	}{
		{fmt.Sprintf("spending_%s.json", runID), "Volume by Category", views.CategoryTotals},
		{fmt.Sprintf("risk_%s.json", runID), "Security Audit: Risk Distribution", views.RiskScores},
		{fmt.Sprintf("assets_%s.json", runID), "Asset Allocation by Segment", views.SegmentAssets},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		payload, err := json.MarshalIndent(map[string]any{
			"title": c.title,
			"data":  c.data,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding chart %s: %w", c.name, err)
		}
		path := filepath.Join(w.chartsDir, c.name)
		if err := renameio.WriteFile(path, payload, 0o640); err != nil {
			return nil, fmt.Errorf("writing chart %s: %w", c.name, err)
		}
		paths = append(paths, filepath.ToSlash(path))
	}
	return paths, nil
}

// WriteSummary generates the markdown executive summary and returns its
// path.
func (w *Writer) WriteSummary(runID core.RunID, insights string, chartPaths []string) (string, error) {
	now := w.now()

	var b strings.Builder
	b.WriteString("# Decision Intelligence - Executive Summary\n")
	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString("## Analysis Results\n")
	b.WriteString(insights)
	b.WriteString("\n\n## Visualizations\n")
	for _, path := range chartPaths {
		fmt.Fprintf(&b, "![Chart](%s)\n\n", path)
	}

	name := fmt.Sprintf("Executive_Summary_%s_%s.md", runID, now.Format("20060102_150405"))
	path := filepath.Join(w.reportsDir, name)
	if err := renameio.WriteFile(path, []byte(b.String()), 0o640); err != nil {
		return "", fmt.Errorf("writing executive summary: %w", err)
	}
	return filepath.ToSlash(path), nil
}
