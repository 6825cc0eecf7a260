// Package metrics records what the site builder does. Components take a
// Recorder and default to NoopRecorder, so metrics cost nothing unless a
// Prometheus listener is configured.
package metrics

import "time"

// ResultLabel is the outcome of a build or stage.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder receives build observations.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome ResultLabel)
	SetItems(kind string, n int)
	IncRebuildRequest(source string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(ResultLabel)                {}
func (NoopRecorder) SetItems(string, int)                       {}
func (NoopRecorder) IncRebuildRequest(string)                   {}
