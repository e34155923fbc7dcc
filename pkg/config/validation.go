package config

import "fmt"

func (c *Config) validate() error {
	if c.Broker.Host == "" {
		return fmt.Errorf("%s is required", KeyBrokerHost)
	}
	if c.Broker.Port <= 0 || c.Broker.Port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", KeyBrokerPort)
	}
	if len(c.Streams) == 0 {
		return fmt.Errorf("%s must name at least one stream", KeyStreams)
	}
	seen := make(map[string]bool, len(c.Streams))
	for _, s := range c.Streams {
		if s.ID == "" {
			return fmt.Errorf("stream entries require an id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate stream id %q", s.ID)
		}
		seen[s.ID] = true
	}
	if c.Counting.ConfidenceThreshold < 0 || c.Counting.ConfidenceThreshold > 1 {
		return fmt.Errorf("%s must be between 0 and 1", KeyConfidenceThreshold)
	}
	if c.Counting.EvictionWindowSeconds <= 0 {
		return fmt.Errorf("%s must be positive", KeyEvictionWindowSeconds)
	}
	if c.Persistence.Path == "" {
		return fmt.Errorf("%s is required", KeyPersistencePath)
	}
	if c.Publish.CountIntervalSeconds <= 0 || c.Publish.HealthIntervalSeconds <= 0 || c.Publish.AnalyticsIntervalSeconds <= 0 {
		return fmt.Errorf("publish intervals must be positive")
	}
	return nil
}
