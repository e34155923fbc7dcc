// Package message defines the closed set of telemetry payloads published to
// the broker. Each variant carries a fixed schema and a message_type tag so
// consumers can route on it; construction goes through the New* helpers so
// the tag and method fields are never hand-assembled.
package message

import (
	"encoding/json"
	"time"
)

const (
	TypeCountUpdate      = "tracking_count_update"
	TypeHealthStatus     = "health_status"
	TypeAnalyticsSummary = "analytics_summary"

	// CountingMethod identifies how unique objects are counted. Tracker ids
	// are the only method this engine implements.
	CountingMethod = "tracker_ids"

	StatusHealthy = "healthy"
	StatusWarning = "warning"
)

// Message is one telemetry payload bound for a broker topic.
type Message interface {
	// Type returns the message_type tag.
	Type() string
	// Encode serializes the payload to the wire format.
	Encode() ([]byte, error)
}

// CountUpdate reports one stream's live/session/total counts.
type CountUpdate struct {
	Timestamp            time.Time `json:"timestamp"`
	SourceID             string    `json:"source_id"`
	CameraName           string    `json:"camera_name,omitempty"`
	Location             string    `json:"location,omitempty"`
	Method               string    `json:"counting_method"`
	UniqueObjectsTracked int       `json:"unique_objects_tracked"`
	SessionNewObjects    int64     `json:"session_new_objects"`
	TotalObjectsDetected int64     `json:"total_objects_detected"`
	TrackedObjectIDs     []int64   `json:"tracked_object_ids"`
	MessageType          string    `json:"message_type"`
}

func NewCountUpdate(at time.Time, sourceID string) CountUpdate {
	return CountUpdate{
		Timestamp:        at,
		SourceID:         sourceID,
		Method:           CountingMethod,
		TrackedObjectIDs: []int64{},
		MessageType:      TypeCountUpdate,
	}
}

func (m CountUpdate) Type() string            { return TypeCountUpdate }
func (m CountUpdate) Encode() ([]byte, error) { return json.Marshal(m) }

// HealthStatus reports process liveness and resource usage, combined with the
// cross-stream object total.
type HealthStatus struct {
	Timestamp            time.Time `json:"timestamp"`
	SystemStatus         string    `json:"system_status"`
	CPUUsage             float64   `json:"cpu_usage"`
	MemoryUsage          float64   `json:"memory_usage"`
	DiskUsage            float64   `json:"disk_usage"`
	ActiveStreams        int       `json:"active_streams"`
	TotalObjectsDetected int64     `json:"total_objects_detected"`
	UptimeSeconds        float64   `json:"uptime"`
	MessageType          string    `json:"message_type"`
}

func NewHealthStatus(at time.Time) HealthStatus {
	return HealthStatus{
		Timestamp:    at,
		SystemStatus: StatusHealthy,
		MessageType:  TypeHealthStatus,
	}
}

func (m HealthStatus) Type() string            { return TypeHealthStatus }
func (m HealthStatus) Encode() ([]byte, error) { return json.Marshal(m) }

// StreamBreakdown is one stream's entry in an AnalyticsSummary.
type StreamBreakdown struct {
	Unique  int   `json:"unique"`
	Session int64 `json:"session"`
	Total   int64 `json:"total"`
}

// AnalyticsSummary reports the cross-stream breakdown of counts.
type AnalyticsSummary struct {
	Timestamp                 time.Time                  `json:"timestamp"`
	TotalUniqueObjectsTracked int                        `json:"total_unique_objects_tracked"`
	TotalSessionNewObjects    int64                      `json:"total_session_new_objects"`
	TotalPersistentCount      int64                      `json:"total_persistent_count"`
	PerStreamBreakdown        map[string]StreamBreakdown `json:"per_stream_breakdown"`
	MessageType               string                     `json:"message_type"`
}

func NewAnalyticsSummary(at time.Time) AnalyticsSummary {
	return AnalyticsSummary{
		Timestamp:          at,
		PerStreamBreakdown: map[string]StreamBreakdown{},
		MessageType:        TypeAnalyticsSummary,
	}
}

func (m AnalyticsSummary) Type() string            { return TypeAnalyticsSummary }
func (m AnalyticsSummary) Encode() ([]byte, error) { return json.Marshal(m) }
