package telemetry

import "time"

type TelemetryEvent interface {
	Timestamp() time.Time // When the event occurred
	EventType() string    // For categorization/filtering
}

// DetectionObserved records one detection event reaching the deduplicator,
// whatever the outcome was.
type DetectionObserved struct {
	timestamp time.Time
	StreamID  string
	Outcome   string
}

func (e DetectionObserved) Timestamp() time.Time { return e.timestamp }
func (e DetectionObserved) EventType() string    { return "detection_observed" }

func NewDetectionObserved(streamID, outcome string) DetectionObserved {
	return DetectionObserved{timestamp: time.Now(), StreamID: streamID, Outcome: outcome}
}

// ObjectCounted records a tracker id counted as a new unique object.
type ObjectCounted struct {
	timestamp time.Time
	StreamID  string
	TrackerID int64
	ClassID   int
}

func (e ObjectCounted) Timestamp() time.Time { return e.timestamp }
func (e ObjectCounted) EventType() string    { return "object_counted" }

func NewObjectCounted(streamID string, trackerID int64, classID int) ObjectCounted {
	return ObjectCounted{timestamp: time.Now(), StreamID: streamID, TrackerID: trackerID, ClassID: classID}
}

// ObjectsEvicted records an eviction pass removing stale tracker ids.
type ObjectsEvicted struct {
	timestamp time.Time
	Count     int
}

func (e ObjectsEvicted) Timestamp() time.Time { return e.timestamp }
func (e ObjectsEvicted) EventType() string    { return "objects_evicted" }

func NewObjectsEvicted(count int) ObjectsEvicted {
	return ObjectsEvicted{timestamp: time.Now(), Count: count}
}

// SnapshotSaved records a successful persistence flush.
type SnapshotSaved struct {
	timestamp time.Time
	Streams   int
}

func (e SnapshotSaved) Timestamp() time.Time { return e.timestamp }
func (e SnapshotSaved) EventType() string    { return "snapshot_saved" }

func NewSnapshotSaved(streams int) SnapshotSaved {
	return SnapshotSaved{timestamp: time.Now(), Streams: streams}
}

// MessagePublished records a successful broker publish.
type MessagePublished struct {
	timestamp time.Time
	Topic     string
	Kind      string // message_type tag of the payload
}

func (e MessagePublished) Timestamp() time.Time { return e.timestamp }
func (e MessagePublished) EventType() string    { return "message_published" }

func NewMessagePublished(topic, kind string) MessagePublished {
	return MessagePublished{timestamp: time.Now(), Topic: topic, Kind: kind}
}

// ConnectionStatusChanged records a broker connect or disconnect.
type ConnectionStatusChanged struct {
	timestamp time.Time
	Connected bool
}

func (e ConnectionStatusChanged) Timestamp() time.Time { return e.timestamp }
func (e ConnectionStatusChanged) EventType() string    { return "connection_status_changed" }

func NewConnectionStatusChanged(connected bool) ConnectionStatusChanged {
	return ConnectionStatusChanged{timestamp: time.Now(), Connected: connected}
}

// CounterError records a non-fatal failure absorbed by a component.
type CounterError struct {
	timestamp time.Time
	Err       error
	Context   string // e.g. "broker_publish", "persist_save"
	Severity  ErrorSeverity
}

func (e CounterError) Timestamp() time.Time { return e.timestamp }
func (e CounterError) EventType() string    { return "counter_error" }

func NewCounterError(err error, context string, severity ErrorSeverity) CounterError {
	return CounterError{timestamp: time.Now(), Err: err, Context: context, Severity: severity}
}

type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// TelemetryPublisher accepts events from any component, non-blocking.
type TelemetryPublisher interface {
	Publish(event TelemetryEvent)
}
