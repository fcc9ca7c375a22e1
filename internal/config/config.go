// Package config provides configuration management for dmxcastctl.
package config

import (
	"os"
	"strconv"
	"time"
)

// Protocol selects which wire emitter a node uses.
type Protocol string

const (
	ProtocolArtNet Protocol = "artnet"
	ProtocolSacn   Protocol = "sacn"
	ProtocolKinet  Protocol = "kinet"
)

// Config holds all configuration values for a dmxcastctl node.
type Config struct {
	// Destination
	Protocol    Protocol
	Destination string
	Port        int

	// Engine timing
	MaxFPS             int
	RefreshEveryMillis int
	DisableAutoRefresh bool

	// Universes to pre-create at startup.
	UniverseCount int

	// Art-Net specific
	ArtNetSequenceCounter bool

	// sACN specific
	SacnCID        string
	SacnSourceName string

	// Patch file
	PatchFilePath string
}

// Load loads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Protocol:    Protocol(getEnv("DMXCAST_PROTOCOL", string(ProtocolArtNet))),
		Destination: getEnv("DMXCAST_DESTINATION", "255.255.255.255"),
		Port:        getEnvInt("DMXCAST_PORT", 6454),

		MaxFPS:             getEnvInt("DMXCAST_MAX_FPS", 25),
		RefreshEveryMillis: getEnvInt("DMXCAST_REFRESH_EVERY_MS", 2000),
		DisableAutoRefresh: getEnvBool("DMXCAST_DISABLE_AUTO_REFRESH", false),

		UniverseCount: getEnvInt("DMXCAST_UNIVERSE_COUNT", 1),

		ArtNetSequenceCounter: getEnvBool("DMXCAST_ARTNET_SEQUENCE", true),

		SacnCID:        getEnv("DMXCAST_SACN_CID", ""),
		SacnSourceName: getEnv("DMXCAST_SACN_SOURCE_NAME", "dmxcast"),

		PatchFilePath: getEnv("DMXCAST_PATCH_FILE", ""),
	}
}

// RefreshEvery returns RefreshEveryMillis as a time.Duration.
func (c *Config) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshEveryMillis) * time.Millisecond
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
