package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"api-doc-explorer/internal/viewer"
)

// Report represents an exploration report
type Report struct {
	Timestamp time.Time         `json:"timestamp"`
	Endpoints int               `json:"endpoints"`
	Failures  int               `json:"failures"`
	Views     []viewer.Snapshot `json:"views"`
}

// Reporter renders view snapshots
type Reporter struct {
	config ReportingConfig
}

// ReportingConfig holds the configuration for reporting
type ReportingConfig struct {
	Format    []string
	OutputDir string
}

// NewReporter creates a new instance of Reporter
func NewReporter(config ReportingConfig) *Reporter {
	return &Reporter{
		config: config,
	}
}

// NewReport wraps snapshots into a report
func NewReport(views []viewer.Snapshot) Report {
	report := Report{
		Timestamp: time.Now(),
		Endpoints: len(views),
		Views:     views,
	}
	for _, v := range views {
		report.Failures += len(v.Failures)
	}
	return report
}

// Render writes the report to w in every configured format
func (r *Reporter) Render(w io.Writer, report Report) error {
	for _, format := range r.config.Format {
		if err := render(w, format, report); err != nil {
			return err
		}
	}
	return nil
}

// GenerateReport writes one file per configured format and returns the paths
func (r *Reporter) GenerateReport(report Report) ([]string, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return nil, err
	}

	var paths []string
	for _, format := range r.config.Format {
		reportPath := filepath.Join(r.config.OutputDir,
			fmt.Sprintf("report_%s.%s", report.Timestamp.Format("20060102_150405"), extension(format)))
		file, err := os.Create(reportPath)
		if err != nil {
			return paths, err
		}
		err = render(file, format, report)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return paths, fmt.Errorf("failed to generate %s report: %w", format, err)
		}
		paths = append(paths, reportPath)
	}
	return paths, nil
}

func render(w io.Writer, format string, report Report) error {
	switch format {
	case "json":
		return WriteJSON(w, report)
	case "text":
		for _, v := range report.Views {
			if err := WriteText(w, v); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func extension(format string) string {
	if format == "text" {
		return "txt"
	}
	return format
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteText writes an outline of one view. Children of collapsed nodes are
// hidden.
func WriteText(w io.Writer, snap viewer.Snapshot) error {
	var b strings.Builder
	b.WriteString(snap.Method + " " + snap.Route)
	if snap.Summary != "" {
		b.WriteString(" - " + snap.Summary)
	}
	b.WriteByte('\n')

	for _, section := range snap.Sections {
		writeNode(&b, section.Root, 1)
	}

	if len(snap.Alternatives) > 0 {
		b.WriteString("  alternatives\n")
		for _, alt := range snap.Alternatives {
			b.WriteString("    " + marker(alt.Expanded) + " " + alt.Key)
			if alt.Expanded {
				b.WriteString(describe(alt.Status, alt.Description))
			}
			b.WriteByte('\n')
		}
	}

	for _, f := range snap.Failures {
		b.WriteString("  ! " + f + "\n")
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func writeNode(b *strings.Builder, n viewer.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	if len(n.Children) > 0 {
		b.WriteString(marker(n.Expanded) + " ")
	} else {
		b.WriteString("- ")
	}
	b.WriteString(n.Name)
	if n.Leaf {
		b.WriteString(" (" + n.Type + ")")
		if n.AddedDate != nil {
			b.WriteString(" [added " + n.AddedDate.Format("2006-01-02") + "]")
		}
		b.WriteString(describe(n.Status, n.Description))
	}
	b.WriteByte('\n')

	if !n.Expanded {
		return
	}
	for _, child := range n.Children {
		writeNode(b, child, depth+1)
	}
}

func marker(expanded bool) string {
	if expanded {
		return "v"
	}
	return ">"
}

func describe(status string, description *string) string {
	switch status {
	case "loading":
		return ": loading..."
	case "failed":
		if description != nil {
			return ": " + *description + " (stale)"
		}
		return ": unavailable"
	case "loaded":
		if description == nil {
			return ": no description"
		}
		return ": " + *description
	default:
		return ""
	}
}
