// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/SoftwareHeritage/swh-scanner/internal/ui"
	"github.com/SoftwareHeritage/swh-scanner/pkg/scanner"
)

// Format selects how scan results are rendered.
type Format string

const (
	// FormatText prints one colored line per path below the root plus a
	// summary.
	FormatText Format = "text"

	// FormatJSON prints a pretty JSON object keyed by path.
	FormatJSON Format = "json"

	// FormatNDJSON prints one compact JSON record per line.
	FormatNDJSON Format = "ndjson"

	// FormatSummary prints only the scan-wide counts.
	FormatSummary Format = "summary"
)

// ParseFormat validates a format name from the CLI.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatText, FormatJSON, FormatNDJSON, FormatSummary:
		return Format(name), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json, ndjson or summary)", name)
}

// Render writes the scan result to w in the given format.
func Render(w io.Writer, format Format, res *scanner.Result) error {
	switch format {
	case FormatText:
		return renderText(w, res)
	case FormatJSON:
		return renderJSON(w, res)
	case FormatNDJSON:
		return renderNDJSON(w, res)
	case FormatSummary:
		return renderSummary(w, res)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func renderText(w io.Writer, res *scanner.Result) error {
	for _, pi := range res.PathInfos() {
		if pi.Path == "." {
			continue
		}
		marker := ui.Red.Sprint("✗")
		if pi.Known {
			marker = ui.Green.Sprint("✓")
		}
		line := fmt.Sprintf("%s %s %s", marker, pi.Path, ui.DimText(pi.SWHID))
		if pi.Provenance != nil && pi.Provenance.Origin != "" {
			line += " " + ui.DimText("← "+pi.Provenance.Origin)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return renderSummary(w, res)
}

func renderSummary(w io.Writer, res *scanner.Result) error {
	sum := res.Summary()
	percent := 0.0
	if sum.Total > 0 {
		percent = 100 * float64(sum.Known) / float64(sum.Total)
	}
	_, err := fmt.Fprintf(w, "%s %d/%d objects already archived (%.1f%%)\n",
		ui.Label("Summary:"), sum.Known, sum.Total, percent)
	if err == nil && res.Info.TracksProvenance() {
		_, err = fmt.Fprintf(w, "%s %d objects with provenance\n",
			ui.Label("Provenance:"), sum.WithProvenance)
	}
	return err
}

// jsonRecord is the per-path value of the json format, keyed by path
// in the enclosing object.
type jsonRecord struct {
	SWHID      string                  `json:"swhid"`
	Known      bool                    `json:"known"`
	Provenance *scanner.ProvenanceInfo `json:"provenance,omitempty"`
}

func renderJSON(w io.Writer, res *scanner.Result) error {
	records := make(map[string]jsonRecord)
	for _, pi := range res.PathInfos() {
		records[pi.Path] = jsonRecord{SWHID: pi.SWHID, Known: pi.Known, Provenance: pi.Provenance}
	}
	return JSONTo(w, records)
}

func renderNDJSON(w io.Writer, res *scanner.Result) error {
	infos := res.PathInfos()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	for _, pi := range infos {
		if err := JSONCompact(w, pi); err != nil {
			return err
		}
	}
	return nil
}
