package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress progress output")
	pf.Bool("json", false, "Emit logs as JSON")
	pf.BoolP("interactive", "i", false, "Show the browser and wait for verification challenges (same as HEADFUL=1)")
	pf.String("proxy", "", "Browser proxy (e.g., http://localhost:8080)")
	pf.String("user-agent", "", "Custom user agent string")
	pf.String("chrome-path", "", "Path to the Chrome/Chromium executable")
	pf.String("state", "", "Session snapshot path (default "+DefaultStatePath+")")
	pf.String("store", "", "Session snapshot store: file or keyring")
	pf.Duration("timeout", 0, "Hard timeout for the whole command (0 disables)")
}

// RegisterFetchFlags registers flags shared by the data-fetching commands
func RegisterFetchFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	f := cmd.Flags()
	f.Int("page-size", DefaultPageSize, "Items requested per page")
	f.Int("max-pages", DefaultMaxPages, "Hard ceiling on pages fetched")
	f.Duration("base-delay", DefaultBaseDelay, "Base pause between pages")
	f.Float64("spike-prob", DefaultSpikeProbability, "Probability that a pause is doubled")
	f.Float64("max-rps", DefaultMaxRPS, "Request ceiling per second (0 disables)")
	f.Int("burst", DefaultBurst, "Request burst allowed by the ceiling")
	f.Int("retries", DefaultRetries, "Retry the command this many times when rate limited")
	f.String("data-dir", DefaultDataDir, "Directory results are written under")
	f.Bool("stdout", false, "Print the result as JSON instead of saving it")
}
