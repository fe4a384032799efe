// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/SoftwareHeritage/swh-scanner/pkg/scanner"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled indicates whether progress bars should be shown.
	// Disabled with -q, --json, or when stderr is not a TTY.
	Enabled bool

	// Writer is where progress output goes (always os.Stderr).
	Writer io.Writer

	// NoColor disables colored output in progress bars.
	NoColor bool
}

// NewProgressConfig creates a progress configuration from the global
// flags and TTY detection.
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.Quiet && !globals.JSON && isatty.IsTerminal(os.Stderr.Fd())
	return ProgressConfig{
		Enabled: enabled,
		Writer:  os.Stderr,
		NoColor: globals.NoColor,
	}
}

// stepDescriptions are the bar labels per scan step.
var stepDescriptions = map[scanner.Step]string{
	scanner.StepDiskScan:       "Scanning the tree",
	scanner.StepKnownDiscovery: "Querying the archive",
	scanner.StepProvenance:     "Resolving provenance",
}

// barProgress renders scan progress as one progress bar per step,
// implementing scanner.Progress. Steps with an unknown total show a
// spinner. Safe for concurrent updates.
type barProgress struct {
	cfg ProgressConfig

	mu   sync.Mutex
	bars map[scanner.Step]*progressbar.ProgressBar
}

// newBarProgress returns a progress sink for the scan; a no-op one
// when progress is disabled.
func newBarProgress(cfg ProgressConfig) scanner.Progress {
	if !cfg.Enabled {
		return scanner.NoopProgress{}
	}
	return &barProgress{cfg: cfg, bars: make(map[scanner.Step]*progressbar.ProgressBar)}
}

func (p *barProgress) Begin(step scanner.Step, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars[step] = progressbar.NewOptions64(int64(total),
		progressbar.OptionSetDescription(stepDescriptions[step]),
		progressbar.OptionSetWriter(p.cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!p.cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *barProgress) Increment(step scanner.Step, n int) {
	p.mu.Lock()
	bar := p.bars[step]
	p.mu.Unlock()
	if bar != nil {
		_ = bar.Add(n)
	}
}

func (p *barProgress) Update(step scanner.Step, current, total int) {
	p.mu.Lock()
	bar := p.bars[step]
	p.mu.Unlock()
	if bar != nil {
		bar.ChangeMax64(int64(total))
		_ = bar.Set(current)
	}
}

func (p *barProgress) End(step scanner.Step) {
	p.mu.Lock()
	bar := p.bars[step]
	delete(p.bars, step)
	p.mu.Unlock()
	if bar != nil {
		_ = bar.Finish()
	}
}
