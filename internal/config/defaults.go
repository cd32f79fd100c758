package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel         = "info"
	DefaultJSONLog          = false
	DefaultPageSize         = 12
	DefaultMaxPages         = 500
	DefaultBaseDelay        = 1700 * time.Millisecond
	DefaultSpikeProbability = 0.15
	DefaultUserAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultStatePath        = ".igfetch/storage-state.json"
	DefaultStateStore       = "file"
	DefaultDataDir          = "data"
	DefaultMaxRPS           = 1.0
	DefaultBurst            = 3
	DefaultRetries          = 0
	DefaultDotEnvFile       = ".env"
	DefaultShutdownTimeout  = 5 * time.Second
)

// Environment variable names
const (
	EnvUsername    = "IG_USERNAME"
	EnvPassword    = "IG_PASSWORD"
	EnvHeadful     = "HEADFUL"
	EnvPageSize    = "IG_PAGE_SIZE"
	EnvMaxPages    = "IG_MAX_PAGES"
	EnvBaseDelayMs = "IG_BASE_DELAY_MS"
	EnvSpikeProb   = "IG_SPIKE_PROB"
	EnvUserAgent   = "IG_USER_AGENT"
	EnvProxy       = "IG_PROXY"
	EnvChromePath  = "IG_CHROME_PATH"
	EnvStatePath   = "IG_STATE_PATH"
	EnvStateStore  = "IG_STATE_STORE"
	EnvDataDir     = "IG_DATA_DIR"
	EnvMaxRPS      = "IG_MAX_RPS"
	EnvBurst       = "IG_BURST"
	EnvRetries     = "IG_RETRIES"
)
