package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Config holds application configuration values. It is built once per
// process and passed explicitly to the session, login and client layers.
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	Quiet    bool

	// Credentials are only demanded when a login is actually needed
	Credentials models.Credentials
	// Interactive shows the browser and waits for a human on challenges
	Interactive bool

	Pagination models.PaginationConfig

	// Browser
	UserAgent  string
	Proxy      string
	ChromePath string

	// Session snapshot
	StatePath  string
	StateStore string

	// Output
	DataDir string
	Stdout  bool

	// Request floor and caller-side retry
	MaxRPS  float64
	Burst   int
	Retries int

	// Timeout bounds a whole command; 0 means none
	Timeout time.Duration
}

// Defaults returns the documented default configuration
func Defaults() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		JSONLog:  DefaultJSONLog,
		Pagination: models.PaginationConfig{
			PageSize:         DefaultPageSize,
			MaxPages:         DefaultMaxPages,
			BaseDelay:        DefaultBaseDelay,
			SpikeProbability: DefaultSpikeProbability,
		},
		UserAgent:  DefaultUserAgent,
		StatePath:  DefaultStatePath,
		StateStore: DefaultStateStore,
		DataDir:    DefaultDataDir,
		MaxRPS:     DefaultMaxRPS,
		Burst:      DefaultBurst,
		Retries:    DefaultRetries,
	}
}

// Load builds a Config by combining defaults, a .env file in the working
// directory, environment variables, and CLI flags, in increasing precedence.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	return load(cmd, DefaultDotEnvFile)
}

func load(cmd *cobra.Command, dotEnv string) (*Config, error) {
	if dotEnv != "" {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", dotEnv).Msg("Failed to read env file")
		}
	}

	cfg := Defaults()
	applyEnv(cfg)
	if cmd != nil {
		applyFlags(cmd, cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Credentials = models.Credentials{
		Username: strings.TrimSpace(os.Getenv(EnvUsername)),
		Password: strings.TrimSpace(os.Getenv(EnvPassword)),
	}
	if os.Getenv(EnvHeadful) != "" {
		cfg.Interactive = true
	}

	p := &cfg.Pagination
	p.PageSize = envInt(EnvPageSize, p.PageSize)
	p.MaxPages = envInt(EnvMaxPages, p.MaxPages)
	p.BaseDelay = time.Duration(envInt(EnvBaseDelayMs, int(p.BaseDelay.Milliseconds()))) * time.Millisecond
	p.SpikeProbability = envFloat(EnvSpikeProb, p.SpikeProbability)

	if v := os.Getenv(EnvUserAgent); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv(EnvChromePath); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv(EnvStatePath); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv(EnvStateStore); v != "" {
		cfg.StateStore = strings.ToLower(v)
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	cfg.MaxRPS = envFloat(EnvMaxRPS, cfg.MaxRPS)
	cfg.Burst = envInt(EnvBurst, cfg.Burst)
	cfg.Retries = envInt(EnvRetries, cfg.Retries)
}

// applyFlags overrides with flags the user actually set
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("verbose") {
		if v, _ := flags.GetBool("verbose"); v {
			cfg.LogLevel = "debug"
		}
	}
	if changed("quiet") {
		cfg.Quiet, _ = flags.GetBool("quiet")
	}
	if changed("json") {
		cfg.JSONLog, _ = flags.GetBool("json")
	}
	if changed("interactive") {
		cfg.Interactive, _ = flags.GetBool("interactive")
	}
	if changed("stdout") {
		cfg.Stdout, _ = flags.GetBool("stdout")
	}
	if changed("page-size") {
		cfg.Pagination.PageSize, _ = flags.GetInt("page-size")
	}
	if changed("max-pages") {
		cfg.Pagination.MaxPages, _ = flags.GetInt("max-pages")
	}
	if changed("base-delay") {
		cfg.Pagination.BaseDelay, _ = flags.GetDuration("base-delay")
	}
	if changed("spike-prob") {
		cfg.Pagination.SpikeProbability, _ = flags.GetFloat64("spike-prob")
	}
	if changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if changed("proxy") {
		cfg.Proxy, _ = flags.GetString("proxy")
	}
	if changed("chrome-path") {
		cfg.ChromePath, _ = flags.GetString("chrome-path")
	}
	if changed("state") {
		cfg.StatePath, _ = flags.GetString("state")
	}
	if changed("store") {
		s, _ := flags.GetString("store")
		cfg.StateStore = strings.ToLower(s)
	}
	if changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if changed("max-rps") {
		cfg.MaxRPS, _ = flags.GetFloat64("max-rps")
	}
	if changed("burst") {
		cfg.Burst, _ = flags.GetInt("burst")
	}
	if changed("retries") {
		cfg.Retries, _ = flags.GetInt("retries")
	}
	if changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
}

// envInt parses an integer variable; malformed values keep the fallback
func envInt(name string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("var", name).Str("value", v).Msg("Ignoring malformed integer")
		return fallback
	}
	return n
}

// envFloat parses a float variable; malformed values keep the fallback
func envFloat(name string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("var", name).Str("value", v).Msg("Ignoring malformed number")
		return fallback
	}
	return f
}
