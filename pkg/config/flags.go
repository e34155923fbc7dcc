package config

import (
	"flag"
	"fmt"
)

// parseCLIFlags parses command-line flags and returns a FlagSource and help flag
func parseCLIFlags() (*FlagSource, bool) {
	flagSource := NewFlagSource()

	// Define CLI flags
	brokerHost := flag.String(FlagBrokerHost, "", HelpBrokerHost)
	brokerPort := flag.Int(FlagBrokerPort, 0, HelpBrokerPort)
	brokerUser := flag.String(FlagBrokerUsername, "", HelpBrokerUsername)
	brokerPass := flag.String(FlagBrokerPassword, "", HelpBrokerPassword)
	clientID := flag.String(FlagClientID, "", HelpClientID)
	streams := flag.String(FlagStreams, "", HelpStreams)
	confidenceThreshold := flag.Float64(FlagConfidenceThreshold, 0, HelpConfidenceThreshold)
	evictionWindow := flag.Int(FlagEvictionWindow, 0, HelpEvictionWindow)
	persistencePath := flag.String(FlagPersistencePath, "", HelpPersistencePath)
	configFile := flag.String(FlagConfigFile, "", HelpConfigFile)
	simulate := flag.Bool(FlagSimulate, false, HelpSimulate)
	help := flag.Bool(FlagHelp, false, HelpShowHelp)

	flag.Parse()

	if *help {
		return flagSource, true
	}

	// Store non-zero/non-empty values in flag source
	if *brokerHost != "" {
		flagSource.Set(KeyBrokerHost, *brokerHost)
	}
	if *brokerPort != 0 {
		flagSource.Set(KeyBrokerPort, *brokerPort)
	}
	if *brokerUser != "" {
		flagSource.Set(KeyBrokerUsername, *brokerUser)
	}
	if *brokerPass != "" {
		flagSource.Set(KeyBrokerPassword, *brokerPass)
	}
	if *clientID != "" {
		flagSource.Set(KeyClientID, *clientID)
	}
	if *streams != "" {
		flagSource.Set(KeyStreams, *streams)
	}
	if *confidenceThreshold != 0 {
		flagSource.Set(KeyConfidenceThreshold, *confidenceThreshold)
	}
	if *evictionWindow != 0 {
		flagSource.Set(KeyEvictionWindowSeconds, *evictionWindow)
	}
	if *persistencePath != "" {
		flagSource.Set(KeyPersistencePath, *persistencePath)
	}
	if *configFile != "" {
		flagSource.Set(KeyConfigFile, *configFile)
	}
	if *simulate {
		flagSource.Set(KeySimulate, true)
	}

	return flagSource, false
}

// printUsage prints the usage message
func printUsage() {
	fmt.Printf("%s - %s\n", AppName, AppDescription)
	fmt.Println()
	fmt.Printf("%s\n", HelpUsage)
	fmt.Printf("  %s\n", UsageFormat)
	fmt.Println()
	fmt.Printf("%s\n", HelpOptions)
	fmt.Printf("  --%s string            %s (default: %s)\n", FlagBrokerHost, HelpBrokerHost, DefaultBrokerHost)
	fmt.Printf("  --%s int               %s (default: %d)\n", FlagBrokerPort, HelpBrokerPort, DefaultBrokerPort)
	fmt.Printf("  --%s string            %s\n", FlagBrokerUsername, HelpBrokerUsername)
	fmt.Printf("  --%s string            %s\n", FlagBrokerPassword, HelpBrokerPassword)
	fmt.Printf("  --%s string              %s (default: %s)\n", FlagClientID, HelpClientID, DefaultClientID)
	fmt.Printf("  --%s string               %s (default: %s)\n", FlagStreams, HelpStreams, DefaultStreams)
	fmt.Printf("  --%s float  %s (default: %.1f)\n", FlagConfidenceThreshold, HelpConfidenceThreshold, DefaultConfidenceThreshold)
	fmt.Printf("  --%s int          %s (default: %d)\n", FlagEvictionWindow, HelpEvictionWindow, DefaultEvictionWindowSeconds)
	fmt.Printf("  --%s string      %s (default: %s)\n", FlagPersistencePath, HelpPersistencePath, DefaultPersistencePath)
	fmt.Printf("  --%s string                %s\n", FlagConfigFile, HelpConfigFile)
	fmt.Printf("  --%s                      %s\n", FlagSimulate, HelpSimulate)
	fmt.Printf("  --%s                          %s\n", FlagHelp, HelpShowHelp)
	fmt.Println()
	fmt.Printf("%s\n", HelpEnvironmentVars)
	fmt.Printf("  %-36s %s\n", KeyBrokerHost, EnvDescBrokerHost)
	fmt.Printf("  %-36s %s\n", KeyBrokerPort, EnvDescBrokerPort)
	fmt.Printf("  %-36s %s\n", KeyBrokerUsername, EnvDescBrokerUsername)
	fmt.Printf("  %-36s %s\n", KeyBrokerPassword, EnvDescBrokerPassword)
	fmt.Printf("  %-36s %s\n", KeyClientID, EnvDescClientID)
	fmt.Printf("  %-36s %s\n", KeyStreams, EnvDescStreams)
	fmt.Printf("  %-36s %s\n", KeyConfidenceThreshold, EnvDescConfidenceThreshold)
	fmt.Printf("  %-36s %s\n", KeyEvictionWindowSeconds, EnvDescEvictionWindow)
	fmt.Printf("  %-36s %s\n", KeyPersistencePath, EnvDescPersistencePath)
	fmt.Printf("  %-36s %s\n", KeyConfigFile, EnvDescConfigFile)
	fmt.Printf("  %-36s %s\n", KeySimulate, EnvDescSimulate)
	fmt.Println()
	fmt.Printf("%s\n", HelpNote)
}
