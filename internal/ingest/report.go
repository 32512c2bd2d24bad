package ingest

import (
	"fmt"
	"html"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSources reads the source listing from a YAML file.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var sources []Source
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	return sources, nil
}

// ReportHTML renders the harvest as a reviewable HTML document: one
// section per source, failed sources flagged with a warning.
func ReportHTML(harvests []Harvest) string {
	var b strings.Builder
	b.WriteString("<html>\n<head><title>Parsed Sources</title></head>\n<body>\n")
	for _, h := range harvests {
		fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(h.Source))
		if h.Warning != "" {
			fmt.Fprintf(&b, "<p style=\"color: red\"><i><b>WARNING</b>: %s</i></p>\n", html.EscapeString(h.Warning))
		}
		if len(h.Records) == 0 {
			continue
		}
		b.WriteString("<ol>\n")
		for _, rec := range h.Records {
			fmt.Fprintf(&b, "<li>%s %s <a href=%q>%s</a></li>\n",
				rec.Timestamp.Format("2006-01-02 15:04"),
				html.EscapeString(rec.Title),
				rec.URL,
				html.EscapeString(rec.URL),
			)
		}
		b.WriteString("</ol>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
