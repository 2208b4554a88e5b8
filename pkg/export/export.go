// Package export renders documents to markdown files with YAML frontmatter.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/thoughtflow/pkg/thought"
)

// Exporter writes document markdown files into a directory.
type Exporter struct {
	Dir string
}

// NewExporter creates an Exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir}
}

// frontmatter is the YAML header of an exported document.
type frontmatter struct {
	Label        string   `yaml:"label"`
	Created      string   `yaml:"created"`
	Thoughts     int      `yaml:"thoughts"`
	Destinations []string `yaml:"destinations,omitempty"`
}

// ExportDocument writes doc as a markdown file and returns the filename.
// Thoughts are grouped by destination and listed in their per-destination
// order; the document itself stores no ordering.
func (e *Exporter) ExportDocument(doc *thought.Document) (string, error) {
	grouped := make(map[thought.Destination][]thought.ProcessedThought)
	for _, pt := range doc.Thoughts {
		grouped[pt.Destination] = append(grouped[pt.Destination], pt)
	}

	fm := frontmatter{
		Label:    doc.Label,
		Created:  doc.CreatedAt.Format("2006-01-02"),
		Thoughts: len(doc.Thoughts),
	}
	for _, d := range thought.Destinations() {
		if len(grouped[d]) > 0 {
			fm.Destinations = append(fm.Destinations, d.Display())
		}
	}

	fmData, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fmData)
	b.WriteString("---\n\n")
	b.WriteString("# " + doc.Label + "\n")

	for _, d := range thought.Destinations() {
		items := grouped[d]
		if len(items) == 0 {
			continue
		}
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Order != items[j].Order {
				return items[i].Order < items[j].Order
			}
			return items[i].ID < items[j].ID
		})
		b.WriteString("\n## " + d.Display() + "\n\n")
		for _, pt := range items {
			b.WriteString("- " + pt.Content + "\n")
		}
	}

	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	filename := SanitizeFilename(doc.Label) + ".md"
	if err := os.WriteFile(filepath.Join(e.Dir, filename), []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return filename, nil
}

// SanitizeFilename removes characters invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "-")
	}
	return name
}
