package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jhaladik/christmas-hunt-game/utils"
)

// Config is the process configuration read from the environment.
type Config struct {
	Addr            string
	Port            string
	DefaultRoom     string
	LevelFile       string
	SnapshotDir     string
	MinTeamsToStart int
	IdleTimeout     time.Duration
	LogLevel        slog.Level
	LogFormat       string
	OTLPEndpoint    string
	ServiceName     string
}

// ListenAddr is the host:port the HTTP server binds to.
func (c Config) ListenAddr() string { return c.Addr + ":" + c.Port }

// Load reads the optional .env files, then the environment. Values already
// present in the environment win over the files.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config: .env not loaded", "err", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Addr:            utils.GetEnvDefault("ADDR", "localhost"),
		Port:            utils.GetEnvDefault("PORT", "9090"),
		DefaultRoom:     utils.GetEnvDefault("DEFAULT_ROOM", "main"),
		LevelFile:       utils.GetEnvDefault("LEVEL_FILE", ""),
		SnapshotDir:     utils.GetEnvDefault("SNAPSHOT_DIR", ""),
		MinTeamsToStart: intEnv("MIN_TEAMS_TO_START", 1),
		IdleTimeout:     durationEnv("IDLE_TIMEOUT", 30*time.Second),
		LogLevel:        levelEnv("LOG_LEVEL", slog.LevelInfo),
		LogFormat:       strings.ToLower(utils.GetEnvDefault("LOG_FORMAT", "text")),
		OTLPEndpoint:    utils.GetEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:     utils.GetEnvDefault("OTEL_SERVICE_NAME", "christmas-hunt"),
	}
}

func intEnv(key string, def int) int {
	raw := utils.GetEnvDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		slog.Warn("config: invalid value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := utils.GetEnvDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("config: invalid value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return v
}

func levelEnv(key string, def slog.Level) slog.Level {
	raw := utils.GetEnvDefault(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("config: invalid value, using default", "key", key, "value", raw, "default", def)
		return def
	}
	return lvl
}
