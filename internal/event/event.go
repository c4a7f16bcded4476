// Package event defines the webhook payload structures emitted for print
// lifecycle milestones, along with the Notifier interface used to fan them
// out to delivery targets.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/printpulse/printpulse/internal/version"
)

// Type denotes the kind of milestone represented by an Event.
type Type string

// Supported event types on the wire.
const (
	TypePrintStarted   Type = "print_started"
	TypeProgressUpdate Type = "progress_update"
	TypePrintEnded     Type = "print_ended"
)

// PrintStartedData is the payload for a new print job.
type PrintStartedData struct {
	// JobName is the file name identifying the print job.
	JobName string `json:"job_name"`
	// StartTime is the job start as Unix seconds with fractional component.
	StartTime float64 `json:"start_time"`
}

// ProgressUpdateData is the payload for a newly reached integer percent.
type ProgressUpdateData struct {
	// JobName is the file name identifying the print job.
	JobName string `json:"job_name"`
	// ProgressPercent is the whole percent just crossed, 0-100.
	ProgressPercent int `json:"progress_percent"`
	// ElapsedTimeSeconds is wall time since the job started.
	ElapsedTimeSeconds float64 `json:"elapsed_time_seconds"`
	// EstimatedRemainingSeconds extrapolates from elapsed time; it is
	// omitted at percent 0 where no estimate exists.
	EstimatedRemainingSeconds *float64 `json:"estimated_remaining_seconds,omitempty"`
	// Timestamp is the emission time as Unix seconds.
	Timestamp float64 `json:"timestamp"`
}

// PrintEndedData is the payload for a finished or cancelled job.
type PrintEndedData struct {
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// Event is an immutable lifecycle milestone destined for webhook delivery.
// Exactly one of the data fields is set, matching Type.
type Event struct {
	Type          Type
	PrintStarted  *PrintStartedData
	Progress      *ProgressUpdateData
	PrintEnded    *PrintEndedData
	PluginVersion string
}

// envelope is the exact wire shape: {event_type, data, plugin_version}.
type envelope struct {
	EventType     Type            `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	PluginVersion string          `json:"plugin_version"`
}

// NewPrintStarted builds a print_started event for the given job.
func NewPrintStarted(jobName string, start time.Time) Event {
	return Event{
		Type: TypePrintStarted,
		PrintStarted: &PrintStartedData{
			JobName:   jobName,
			StartTime: UnixSeconds(start),
		},
		PluginVersion: version.Version,
	}
}

// NewProgressUpdate builds a progress_update event. remaining may be nil when
// no estimate is available (percent 0).
func NewProgressUpdate(jobName string, percent int, elapsedSeconds float64, remaining *float64, at time.Time) Event {
	return Event{
		Type: TypeProgressUpdate,
		Progress: &ProgressUpdateData{
			JobName:                   jobName,
			ProgressPercent:           percent,
			ElapsedTimeSeconds:        elapsedSeconds,
			EstimatedRemainingSeconds: remaining,
			Timestamp:                 UnixSeconds(at),
		},
		PluginVersion: version.Version,
	}
}

// NewPrintEnded builds a print_ended event.
func NewPrintEnded(message string, at time.Time) Event {
	return Event{
		Type: TypePrintEnded,
		PrintEnded: &PrintEndedData{
			Message:   message,
			Timestamp: UnixSeconds(at),
		},
		PluginVersion: version.Version,
	}
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	switch e.Type {
	case TypePrintStarted:
		if e.PrintStarted == nil {
			return errors.New("print_started requires a payload")
		}
		if e.PrintStarted.StartTime <= 0 {
			return errors.New("print_started requires a start time")
		}
	case TypeProgressUpdate:
		if e.Progress == nil {
			return errors.New("progress_update requires a payload")
		}
		if e.Progress.ProgressPercent < 0 || e.Progress.ProgressPercent > 100 {
			return fmt.Errorf("progress percent %d out of range", e.Progress.ProgressPercent)
		}
		if e.Progress.Timestamp <= 0 {
			return errors.New("progress_update requires a timestamp")
		}
	case TypePrintEnded:
		if e.PrintEnded == nil {
			return errors.New("print_ended requires a payload")
		}
		if e.PrintEnded.Timestamp <= 0 {
			return errors.New("print_ended requires a timestamp")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// JobName returns the job the event refers to, or the empty string for
// events that carry no job reference.
func (e Event) JobName() string {
	switch e.Type {
	case TypePrintStarted:
		if e.PrintStarted != nil {
			return e.PrintStarted.JobName
		}
	case TypeProgressUpdate:
		if e.Progress != nil {
			return e.Progress.JobName
		}
	}
	return ""
}

// Percent returns the reported percent for progress updates and -1 otherwise.
func (e Event) Percent() int {
	if e.Type == TypeProgressUpdate && e.Progress != nil {
		return e.Progress.ProgressPercent
	}
	return -1
}

// MarshalJSON encodes the wire envelope described in the HTTP contract.
func (e Event) MarshalJSON() ([]byte, error) {
	var data any
	switch e.Type {
	case TypePrintStarted:
		data = e.PrintStarted
	case TypeProgressUpdate:
		data = e.Progress
	case TypePrintEnded:
		data = e.PrintEnded
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return json.Marshal(envelope{
		EventType:     e.Type,
		Data:          raw,
		PluginVersion: e.PluginVersion,
	})
}

// UnmarshalJSON decodes the wire envelope back into a typed Event.
func (e *Event) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	out := Event{Type: env.EventType, PluginVersion: env.PluginVersion}
	switch env.EventType {
	case TypePrintStarted:
		out.PrintStarted = &PrintStartedData{}
		if err := json.Unmarshal(env.Data, out.PrintStarted); err != nil {
			return fmt.Errorf("unmarshal print_started data: %w", err)
		}
	case TypeProgressUpdate:
		out.Progress = &ProgressUpdateData{}
		if err := json.Unmarshal(env.Data, out.Progress); err != nil {
			return fmt.Errorf("unmarshal progress_update data: %w", err)
		}
	case TypePrintEnded:
		out.PrintEnded = &PrintEndedData{}
		if err := json.Unmarshal(env.Data, out.PrintEnded); err != nil {
			return fmt.Errorf("unmarshal print_ended data: %w", err)
		}
	default:
		return fmt.Errorf("unknown event type %q", env.EventType)
	}
	*e = out
	return nil
}

// UnixSeconds converts a time to Unix seconds with fractional precision, the
// representation all webhook timestamps use.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
