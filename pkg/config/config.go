package config

import (
	"fmt"
	"strconv"
	"strings"
)

type Config struct {
	Broker      BrokerConfig
	Streams     []StreamConfig
	Counting    CountingConfig
	Persistence PersistenceConfig
	Publish     PublishConfig
	Network     NetworkConfig
	Timeouts    TimeoutConfig
	Simulate    bool
}

type BrokerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string
}

// StreamConfig describes one tracked video stream. Topic defaults to
// camera<N>/tracking when left empty. ConfidenceThreshold overrides the
// global threshold when non-zero.
type StreamConfig struct {
	ID                  string  `mapstructure:"id"`
	Topic               string  `mapstructure:"topic"`
	CameraName          string  `mapstructure:"camera_name"`
	Location            string  `mapstructure:"location"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

type CountingConfig struct {
	ConfidenceThreshold     float64
	EvictionWindowSeconds   int
	EvictionIntervalSeconds int
}

type PersistenceConfig struct {
	Path                string
	SaveIntervalSeconds int
	MaxFailures         int
}

type PublishConfig struct {
	CountIntervalSeconds     int
	HealthIntervalSeconds    int
	AnalyticsIntervalSeconds int
	HealthTopic              string
	AnalyticsTopic           string
}

type NetworkConfig struct {
	InitialBackoffSeconds int
	MaxBackoffSeconds     int
	BackoffJitter         float64
}

type TimeoutConfig struct {
	ConnectSeconds       int
	PublishSeconds       int
	ShutdownFlushSeconds int
}

// Load loads configuration from CLI flags, environment variables, and an
// optional YAML config file. Precedence: flags > env > file > defaults.
func Load() (*Config, error) {
	flagSource, showHelp := parseCLIFlags()

	if showHelp {
		printUsage()
		return nil, nil // Return nil to indicate help was shown
	}

	env := &EnvSource{}

	// The file path itself resolves from flags and env only.
	pathResolver := NewConfigResolver(flagSource, env)
	filePath := pathResolver.ResolveString(KeyConfigFile, "")

	fileSource, err := NewFileSource(filePath)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", filePath, err)
	}

	resolver := NewConfigResolver(flagSource, env, fileSource)

	cfg := &Config{
		Broker: BrokerConfig{
			Host:     resolver.ResolveString(KeyBrokerHost, DefaultBrokerHost),
			Port:     resolver.ResolveInt(KeyBrokerPort, DefaultBrokerPort),
			Username: resolver.ResolveString(KeyBrokerUsername, DefaultBrokerUsername),
			Password: resolver.ResolveString(KeyBrokerPassword, DefaultBrokerPassword),
			ClientID: resolver.ResolveString(KeyClientID, DefaultClientID),
		},
		Counting: CountingConfig{
			ConfidenceThreshold:     resolver.ResolveFloat(KeyConfidenceThreshold, DefaultConfidenceThreshold),
			EvictionWindowSeconds:   resolver.ResolveInt(KeyEvictionWindowSeconds, DefaultEvictionWindowSeconds),
			EvictionIntervalSeconds: resolver.ResolveInt(KeyEvictionIntervalSeconds, DefaultEvictionIntervalSeconds),
		},
		Persistence: PersistenceConfig{
			Path:                resolver.ResolveString(KeyPersistencePath, DefaultPersistencePath),
			SaveIntervalSeconds: resolver.ResolveInt(KeySaveIntervalSeconds, DefaultSaveIntervalSeconds),
			MaxFailures:         resolver.ResolveInt(KeyPersistenceMaxFailures, DefaultPersistenceMaxFailures),
		},
		Publish: PublishConfig{
			CountIntervalSeconds:     resolver.ResolveInt(KeyCountIntervalSeconds, DefaultCountIntervalSeconds),
			HealthIntervalSeconds:    resolver.ResolveInt(KeyHealthIntervalSeconds, DefaultHealthIntervalSeconds),
			AnalyticsIntervalSeconds: resolver.ResolveInt(KeyAnalyticsIntervalSeconds, DefaultAnalyticsIntervalSeconds),
			HealthTopic:              resolver.ResolveString(KeyHealthTopic, DefaultHealthTopic),
			AnalyticsTopic:           resolver.ResolveString(KeyAnalyticsTopic, DefaultAnalyticsTopic),
		},
		Network: NetworkConfig{
			InitialBackoffSeconds: resolver.ResolveInt(KeyNetworkInitialBackoffSeconds, DefaultNetworkInitialBackoffSeconds),
			MaxBackoffSeconds:     resolver.ResolveInt(KeyNetworkMaxBackoffSeconds, DefaultNetworkMaxBackoffSeconds),
			BackoffJitter:         resolver.ResolveFloat(KeyNetworkBackoffJitter, DefaultNetworkBackoffJitter),
		},
		Timeouts: TimeoutConfig{
			ConnectSeconds:       resolver.ResolveInt(KeyTimeoutConnectSeconds, DefaultTimeoutConnectSeconds),
			PublishSeconds:       resolver.ResolveInt(KeyTimeoutPublishSeconds, DefaultTimeoutPublishSeconds),
			ShutdownFlushSeconds: resolver.ResolveInt(KeyTimeoutShutdownFlushSeconds, DefaultTimeoutShutdownFlushSeconds),
		},
		Simulate: resolver.ResolveBool(KeySimulate, false),
	}

	streams, err := resolveStreams(resolver, fileSource)
	if err != nil {
		return nil, err
	}
	cfg.Streams = streams

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveStreams prefers the structured list from the config file. Without
// one, the STREAMS id list (flags or env) expands into default topics.
func resolveStreams(resolver *ConfigResolver, fileSource *FileSource) ([]StreamConfig, error) {
	fromFile, err := fileSource.Streams()
	if err != nil {
		return nil, fmt.Errorf("streams config: %w", err)
	}
	if len(fromFile) > 0 {
		for i := range fromFile {
			if fromFile[i].Topic == "" {
				fromFile[i].Topic = defaultTopicFor(i)
			}
		}
		return fromFile, nil
	}

	raw := resolver.ResolveString(KeyStreams, DefaultStreams)
	var streams []StreamConfig
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		streams = append(streams, StreamConfig{
			ID:    id,
			Topic: defaultTopicFor(len(streams)),
		})
	}
	return streams, nil
}

func defaultTopicFor(index int) string {
	return "camera" + strconv.Itoa(index+1) + "/tracking"
}
