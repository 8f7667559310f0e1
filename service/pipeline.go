package service

import (
	"context"
	"errors"
)

// Stage names one step of the tracking cycle.
type Stage string

const (
	StageTrack   Stage = "Track"
	StageWeather Stage = "Weather"
	StageSummary Stage = "Summary"
)

// StageError reports the first failing stage of a cycle.
// Status is the backend's HTTP status, or 0 for transport and decoding failures.
type StageError struct {
	Stage  Stage
	Status int
	Err    error
}

// Error is the message shown to the operator: "<Stage> failed" when the backend
// answered with an error status, the underlying message otherwise.
func (e *StageError) Error() string {
	if e.Status != 0 {
		return string(e.Stage) + " failed"
	}
	if e.Err != nil && e.Err.Error() != "" {
		return e.Err.Error()
	}
	return "Error"
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) *StageError {
	se := &StageError{Stage: stage, Err: err}
	var status *StatusError
	if errors.As(err, &status) {
		se.Status = status.Code
	}
	return se
}

// CycleSink receives each stage's result as soon as it is available.
type CycleSink interface {
	SetTrack(TrackResult)
	SetWeather(WeatherResult)
	SetSummary(string)
}

// Pipeline runs track -> weather -> summary against a backend. Each stage's
// input is the previous stage's output; the first failure stops the chain.
type Pipeline struct {
	backend Backend
}

// NewPipeline creates a pipeline for the given backend.
func NewPipeline(b Backend) *Pipeline {
	return &Pipeline{backend: b}
}

// Run executes the three stages for containerID, delivering results to sink.
// The returned error is a *StageError.
func (p *Pipeline) Run(ctx context.Context, containerID string, sink CycleSink) error {
	track, err := p.backend.Track(ctx, containerID)
	if err != nil {
		return stageError(StageTrack, err)
	}
	sink.SetTrack(track)

	weather, err := p.backend.Weather(ctx, track.Lat, track.Lon)
	if err != nil {
		return stageError(StageWeather, err)
	}
	sink.SetWeather(weather)

	summary, err := p.backend.Summary(ctx, SummaryRequest{
		ContainerID: containerID,
		Lat:         track.Lat,
		Lon:         track.Lon,
		ETA:         track.ETA,
		Weather:     weather.Payload(),
	})
	if err != nil {
		return stageError(StageSummary, err)
	}
	sink.SetSummary(summary)

	return nil
}
