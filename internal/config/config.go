// Package config provides centralized configuration management.
// This is the single source of truth for every tunable threshold the
// pipeline relies on.
//
// IMPORTANT: When changing a default, only modify this file.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// SESSION CONFIGURATION
// =============================================================================

// SessionConfig controls the session cache and encounter lifecycle.
type SessionConfig struct {
	EncounterHistory      int           // bounded deque capacity (spec §3 invariant 6)
	PostCombatGraceWindow time.Duration // damage still lands in the prior encounter
	StaleSessionThreshold time.Duration // stale-session threshold; no package in this module reads it
}

// DefaultSession returns the default session configuration.
func DefaultSession() SessionConfig {
	return SessionConfig{
		EncounterHistory:      3,
		PostCombatGraceWindow: 5 * time.Second,
		StaleSessionThreshold: 15 * time.Minute,
	}
}

// SessionFromEnv returns session configuration with environment overrides.
func SessionFromEnv() SessionConfig {
	cfg := DefaultSession()

	if n := getEnvInt("COMBATLOG_ENCOUNTER_HISTORY", 0); n > 0 {
		cfg.EncounterHistory = n
	}
	if d := getEnvDuration("COMBATLOG_POST_COMBAT_GRACE", 0); d > 0 {
		cfg.PostCombatGraceWindow = d
	}
	if d := getEnvDuration("COMBATLOG_STALE_SESSION_THRESHOLD", 0); d > 0 {
		cfg.StaleSessionThreshold = d
	}

	return cfg
}

// =============================================================================
// SHIELD ATTRIBUTION CONFIGURATION
// =============================================================================

// ShieldConfig controls the §4.6 shield-attribution grace window.
type ShieldConfig struct {
	GraceWindow time.Duration
}

// DefaultShield returns the default shield configuration.
func DefaultShield() ShieldConfig {
	return ShieldConfig{GraceWindow: 2 * time.Second}
}

// ShieldFromEnv returns shield configuration with environment overrides.
func ShieldFromEnv() ShieldConfig {
	cfg := DefaultShield()
	if d := getEnvDuration("COMBATLOG_SHIELD_GRACE", 0); d > 0 {
		cfg.GraceWindow = d
	}
	return cfg
}

// =============================================================================
// RAID REGISTRY CONFIGURATION
// =============================================================================

// RaidConfig controls the raid slot registry.
type RaidConfig struct {
	MaxSlots int
}

// DefaultRaid returns the default raid configuration.
func DefaultRaid() RaidConfig {
	return RaidConfig{MaxSlots: 8}
}

// RaidFromEnv returns raid configuration with environment overrides.
func RaidFromEnv() RaidConfig {
	cfg := DefaultRaid()
	if n := getEnvInt("COMBATLOG_MAX_RAID_SLOTS", 0); n > 0 {
		cfg.MaxSlots = n
	}
	return cfg
}

// =============================================================================
// TAIL CONFIGURATION
// =============================================================================

// TailConfig controls the log tailer's adaptive poll backoff.
type TailConfig struct {
	PollMin time.Duration
	PollMax time.Duration
}

// DefaultTail returns the default tail configuration.
func DefaultTail() TailConfig {
	return TailConfig{
		PollMin: 50 * time.Millisecond,
		PollMax: 250 * time.Millisecond,
	}
}

// TailFromEnv returns tail configuration with environment overrides.
func TailFromEnv() TailConfig {
	cfg := DefaultTail()
	if d := getEnvDuration("COMBATLOG_TAIL_POLL_MIN", 0); d > 0 {
		cfg.PollMin = d
	}
	if d := getEnvDuration("COMBATLOG_TAIL_POLL_MAX", 0); d > 0 {
		cfg.PollMax = d
	}
	return cfg
}

// =============================================================================
// OVERLAY ROUTER CONFIGURATION
// =============================================================================

// OverlayConfig controls the overlay router's timeout-driven loop.
type OverlayConfig struct {
	RecvTimeout   time.Duration
	SubscriberBuf int
}

// DefaultOverlay returns the default overlay configuration.
func DefaultOverlay() OverlayConfig {
	return OverlayConfig{
		RecvTimeout:   50 * time.Millisecond,
		SubscriberBuf: 16,
	}
}

// OverlayFromEnv returns overlay configuration with environment overrides.
func OverlayFromEnv() OverlayConfig {
	cfg := DefaultOverlay()
	if d := getEnvDuration("COMBATLOG_OVERLAY_RECV_TIMEOUT", 0); d > 0 {
		cfg.RecvTimeout = d
	}
	if n := getEnvInt("COMBATLOG_OVERLAY_SUBSCRIBER_BUF", 0); n > 0 {
		cfg.SubscriberBuf = n
	}
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	Session SessionConfig
	Shield  ShieldConfig
	Raid    RaidConfig
	Tail    TailConfig
	Overlay OverlayConfig

	LogDirectory string
}

// Load returns the complete configuration with environment overrides. It
// loads a ".env" file first (ignored, if absent) the way the embedding
// desktop application does during development.
func Load() Config {
	_ = loadDotEnv()

	return Config{
		Session:      SessionFromEnv(),
		Shield:       ShieldFromEnv(),
		Raid:         RaidFromEnv(),
		Tail:         TailFromEnv(),
		Overlay:      OverlayFromEnv(),
		LogDirectory: getEnvString("COMBATLOG_LOG_DIR", "."),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
