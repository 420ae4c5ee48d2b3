package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ArenaConfig names one venue: the external channel it embeds and the
// display name shown in the lobby.
type ArenaConfig struct {
	Channel string
	Name    string
}

type Config struct {
	Addr string
	// EmbedParent overrides the embed origin derived from the request
	// host. Needed when the server sits behind a proxy.
	EmbedParent  string
	Tiers        int
	SeatsPerTier int
	Arenas       []ArenaConfig
}

// Load reads configuration from the environment, falling back to the
// defaults the original deployment shipped with.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:         getenv("ADDR", ":8080"),
		EmbedParent:  os.Getenv("EMBED_PARENT"),
		Tiers:        8,
		SeatsPerTier: 5,
		Arenas: []ArenaConfig{
			{Channel: "otplol_", Name: "OTP"},
			{Channel: "claudeplayspokemon", Name: "CPP"},
		},
	}

	var err error
	if cfg.Tiers, err = getint("ARENA_TIERS", cfg.Tiers); err != nil {
		return nil, err
	}
	if cfg.SeatsPerTier, err = getint("ARENA_SEATS_PER_TIER", cfg.SeatsPerTier); err != nil {
		return nil, err
	}
	if cfg.Tiers <= 0 || cfg.SeatsPerTier <= 0 {
		return nil, fmt.Errorf("grid shape must be positive, got %d x %d", cfg.Tiers, cfg.SeatsPerTier)
	}

	if raw := os.Getenv("ARENAS"); raw != "" {
		arenas, err := ParseArenas(raw)
		if err != nil {
			return nil, err
		}
		cfg.Arenas = arenas
	}
	return cfg, nil
}

// ParseArenas reads a "channel:name,channel:name" list.
func ParseArenas(raw string) ([]ArenaConfig, error) {
	var arenas []ArenaConfig
	seen := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		channel, name, ok := strings.Cut(entry, ":")
		if !ok || channel == "" || name == "" {
			return nil, fmt.Errorf("bad arena entry %q, want channel:name", entry)
		}
		if seen[channel] {
			return nil, fmt.Errorf("duplicate arena channel %q", channel)
		}
		seen[channel] = true
		arenas = append(arenas, ArenaConfig{Channel: channel, Name: name})
	}
	if len(arenas) == 0 {
		return nil, fmt.Errorf("ARENAS is set but names no arenas")
	}
	return arenas, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
