package api

import "github.com/starford/timemachine/internal/timemachine"

// ReportResponse is the report of one run (aliased from the domain layer).
type ReportResponse = timemachine.Report

// HorizonStatus describes one catalog horizon (aliased from the domain layer).
type HorizonStatus = timemachine.HorizonStatus

// HorizonsResponse wraps the horizon catalog.
type HorizonsResponse struct {
	Horizons []HorizonStatus `json:"horizons" validate:"required"`
	Capacity int             `json:"capacity" example:"3" validate:"required"`
}

// NoteResponse is a single note opened from the report.
type NoteResponse = timemachine.Note
