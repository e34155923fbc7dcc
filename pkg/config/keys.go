package config

// Configuration key constants
// These constants centralize all environment variable and configuration key
// names to eliminate magic strings and improve maintainability.

const (
	// Broker configuration keys
	KeyBrokerHost     = "MQTT_BROKER_HOST"
	KeyBrokerPort     = "MQTT_BROKER_PORT"
	KeyBrokerUsername = "MQTT_BROKER_USER"
	KeyBrokerPassword = "MQTT_BROKER_PASS"
	KeyClientID       = "MQTT_CLIENT_ID"

	// Stream and counting configuration keys
	KeyStreams                 = "STREAMS"
	KeyConfidenceThreshold     = "CONFIDENCE_THRESHOLD"
	KeyEvictionWindowSeconds   = "EVICTION_WINDOW_SECONDS"
	KeyEvictionIntervalSeconds = "EVICTION_INTERVAL_SECONDS"

	// Persistence configuration keys
	KeyPersistencePath        = "PERSISTENCE_PATH"
	KeySaveIntervalSeconds    = "PERSISTENCE_SAVE_INTERVAL_SECONDS"
	KeyPersistenceMaxFailures = "PERSISTENCE_MAX_FAILURES"

	// Publish configuration keys
	KeyCountIntervalSeconds     = "PUBLISH_COUNT_INTERVAL_SECONDS"
	KeyHealthIntervalSeconds    = "PUBLISH_HEALTH_INTERVAL_SECONDS"
	KeyAnalyticsIntervalSeconds = "PUBLISH_ANALYTICS_INTERVAL_SECONDS"
	KeyHealthTopic              = "HEALTH_TOPIC"
	KeyAnalyticsTopic           = "ANALYTICS_TOPIC"

	// Network configuration keys
	KeyNetworkInitialBackoffSeconds = "NETWORK_INITIAL_BACKOFF_SECONDS"
	KeyNetworkMaxBackoffSeconds     = "NETWORK_MAX_BACKOFF_SECONDS"
	KeyNetworkBackoffJitter         = "NETWORK_BACKOFF_JITTER"

	// Timeout configuration keys
	KeyTimeoutConnectSeconds       = "TIMEOUT_CONNECT_SECONDS"
	KeyTimeoutPublishSeconds       = "TIMEOUT_PUBLISH_SECONDS"
	KeyTimeoutShutdownFlushSeconds = "TIMEOUT_SHUTDOWN_FLUSH_SECONDS"

	// Misc keys
	KeyConfigFile = "CONFIG_FILE"
	KeySimulate   = "SIMULATE"
)

// Default values for configuration
const (
	DefaultBrokerHost     = "localhost"
	DefaultBrokerPort     = 1883
	DefaultBrokerUsername = "admin"
	DefaultBrokerPassword = "password"
	DefaultClientID       = "tracking-counter"

	DefaultStreams                 = "0,1"
	DefaultConfidenceThreshold     = 0.5
	DefaultEvictionWindowSeconds   = 30
	DefaultEvictionIntervalSeconds = 5

	DefaultPersistencePath        = "data/persistence/tracking_counts.json"
	DefaultSaveIntervalSeconds    = 2
	DefaultPersistenceMaxFailures = 10

	DefaultCountIntervalSeconds     = 1
	DefaultHealthIntervalSeconds    = 5
	DefaultAnalyticsIntervalSeconds = 10
	DefaultHealthTopic              = "deepstream/health"
	DefaultAnalyticsTopic           = "deepstream/analytics"

	DefaultNetworkInitialBackoffSeconds = 1
	DefaultNetworkMaxBackoffSeconds     = 30
	DefaultNetworkBackoffJitter         = 0.2

	DefaultTimeoutConnectSeconds       = 10
	DefaultTimeoutPublishSeconds       = 5
	DefaultTimeoutShutdownFlushSeconds = 5
)

// CLI flag name constants (kebab-case for command line)
const (
	FlagBrokerHost          = "broker-host"
	FlagBrokerPort          = "broker-port"
	FlagBrokerUsername      = "broker-user"
	FlagBrokerPassword      = "broker-pass"
	FlagClientID            = "client-id"
	FlagStreams             = "streams"
	FlagConfidenceThreshold = "confidence-threshold"
	FlagEvictionWindow      = "eviction-window"
	FlagPersistencePath     = "persistence-path"
	FlagConfigFile          = "config"
	FlagSimulate            = "simulate"
	FlagHelp                = "help"
)

// Help message constants
const (
	AppName        = "Tracking Counter"
	AppDescription = "Count unique tracked objects and publish telemetry over MQTT"
	UsageFormat    = "counterd [OPTIONS]"

	// Help descriptions
	HelpBrokerHost          = "MQTT broker host"
	HelpBrokerPort          = "MQTT broker port"
	HelpBrokerUsername      = "MQTT username"
	HelpBrokerPassword      = "MQTT password"
	HelpClientID            = "MQTT client ID prefix"
	HelpStreams             = "Comma-separated stream IDs"
	HelpConfidenceThreshold = "Minimum detection confidence"
	HelpEvictionWindow      = "Live-object eviction window in seconds"
	HelpPersistencePath     = "Path to the persisted counts file"
	HelpConfigFile          = "Path to a YAML config file"
	HelpSimulate            = "Generate synthetic detections instead of reading a tracker"
	HelpShowHelp            = "Show this help message"

	// Environment variable descriptions (reuse help descriptions)
	EnvDescBrokerHost          = "MQTT broker host"
	EnvDescBrokerPort          = "MQTT broker port"
	EnvDescBrokerUsername      = "MQTT username"
	EnvDescBrokerPassword      = "MQTT password"
	EnvDescClientID            = "MQTT client ID prefix"
	EnvDescStreams             = "Comma-separated stream IDs"
	EnvDescConfidenceThreshold = "Minimum detection confidence"
	EnvDescEvictionWindow      = "Live-object eviction window in seconds"
	EnvDescPersistencePath     = "Path to the persisted counts file"
	EnvDescConfigFile          = "Path to a YAML config file"
	EnvDescSimulate            = "Generate synthetic detections (1/true to enable)"

	// Help section headers
	HelpOptions         = "Options:"
	HelpEnvironmentVars = "Environment Variables:"
	HelpUsage           = "Usage:"
	HelpNote            = "Note: CLI options override environment variables, which override the config file"
)

// fileKeys maps resolver keys to their dotted form in the YAML config file.
var fileKeys = map[string]string{
	KeyBrokerHost:                   "broker.host",
	KeyBrokerPort:                   "broker.port",
	KeyBrokerUsername:               "broker.username",
	KeyBrokerPassword:               "broker.password",
	KeyClientID:                     "broker.client_id",
	KeyConfidenceThreshold:          "counting.confidence_threshold",
	KeyEvictionWindowSeconds:        "counting.eviction_window_seconds",
	KeyEvictionIntervalSeconds:      "counting.eviction_interval_seconds",
	KeyPersistencePath:              "persistence.path",
	KeySaveIntervalSeconds:          "persistence.save_interval_seconds",
	KeyPersistenceMaxFailures:       "persistence.max_failures",
	KeyCountIntervalSeconds:         "publish.count_interval_seconds",
	KeyHealthIntervalSeconds:        "publish.health_interval_seconds",
	KeyAnalyticsIntervalSeconds:     "publish.analytics_interval_seconds",
	KeyHealthTopic:                  "publish.health_topic",
	KeyAnalyticsTopic:               "publish.analytics_topic",
	KeyNetworkInitialBackoffSeconds: "network.initial_backoff_seconds",
	KeyNetworkMaxBackoffSeconds:     "network.max_backoff_seconds",
	KeyNetworkBackoffJitter:         "network.backoff_jitter",
	KeyTimeoutConnectSeconds:        "timeouts.connect_seconds",
	KeyTimeoutPublishSeconds:        "timeouts.publish_seconds",
	KeyTimeoutShutdownFlushSeconds:  "timeouts.shutdown_flush_seconds",
}
