package ui

import (
	"fmt"
	"time"
)

// ETACalculator estimates the time left for a job from its reported progress (0-100).
// The rate is taken from the last maxSamples samples inside maxTimeWindow.
type ETACalculator struct {
	samples       []progressSample
	maxSamples    int
	maxTimeWindow time.Duration
	now           func() time.Time
}

type progressSample struct {
	at      time.Time
	percent float64
}

// NewETACalculator creates an ETA calculator with default settings
// Uses last 10 samples or 30 second time window for averaging
func NewETACalculator() *ETACalculator {
	return NewETACalculatorCustom(10, 30*time.Second)
}

// NewETACalculatorCustom creates an ETA calculator with custom settings
func NewETACalculatorCustom(maxSamples int, maxTimeWindow time.Duration) *ETACalculator {
	return &ETACalculator{
		maxSamples:    maxSamples,
		maxTimeWindow: maxTimeWindow,
		now:           time.Now,
	}
}

// RecordProgress records a progress measurement taken now
func (e *ETACalculator) RecordProgress(percent float64) {
	e.RecordProgressAt(e.now(), percent)
}

// RecordProgressAt records a progress measurement taken at a given time.
// A value lower than the previous sample (the backend restarted a phase) resets the window.
func (e *ETACalculator) RecordProgressAt(at time.Time, percent float64) {
	if n := len(e.samples); n > 0 && percent < e.samples[n-1].percent {
		e.samples = e.samples[:0]
	}

	e.samples = append(e.samples, progressSample{at: at, percent: percent})

	if len(e.samples) > e.maxSamples {
		e.samples = e.samples[len(e.samples)-e.maxSamples:]
	}

	cutoff := at.Add(-e.maxTimeWindow)
	for len(e.samples) > 2 && !e.samples[0].at.After(cutoff) {
		e.samples = e.samples[1:]
	}
}

// CalculateETA computes the estimated time until progress reaches 100.
// valid is false until two samples with forward progress exist.
func (e *ETACalculator) CalculateETA() (eta time.Duration, valid bool) {
	if len(e.samples) < 2 {
		return 0, false
	}

	first := e.samples[0]
	last := e.samples[len(e.samples)-1]

	if last.percent >= 100 {
		return 0, true
	}

	elapsed := last.at.Sub(first.at)
	gained := last.percent - first.percent
	if gained <= 0 || elapsed <= 0 {
		return 0, false
	}

	perPercent := float64(elapsed) / gained
	return time.Duration((100 - last.percent) * perPercent), true
}

// Reset clears all recorded samples
func (e *ETACalculator) Reset() {
	e.samples = e.samples[:0]
}

// FormatETA formats an ETA duration as a human-readable string
func FormatETA(eta time.Duration) string {
	if eta < time.Second {
		return "< 1s"
	}

	if eta < time.Minute {
		return eta.Round(time.Second).String()
	}

	if eta < time.Hour {
		minutes := int(eta.Minutes())
		seconds := int(eta.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := int(eta.Hours())
	minutes := int(eta.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
