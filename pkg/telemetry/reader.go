package telemetry

type Snapshot struct {
	// Core counters
	DetectionsObserved uint64
	ObjectsCounted     uint64
	ObjectsEvicted     uint64
	SnapshotsSaved     uint64
	MessagesPublished  uint64
	ErrorsTotal        uint64

	// Breakdowns
	CountedByClass  map[int]uint64
	CountedByStream map[string]uint64
	PublishedByKind map[string]uint64
	OutcomesByName  map[string]uint64

	// Connection status
	BrokerConnected bool

	// Rate metrics
	DetectionsPerSecond float64

	// System metrics
	UptimeSeconds      float64
	ChannelUtilization float64

	// Error breakdown
	ErrorsByType     map[string]uint64
	ErrorsBySeverity map[ErrorSeverity]uint64
	RecentErrors     []string
}

type TelemetryReader interface {
	Snapshot() Snapshot
}
