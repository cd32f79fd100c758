// internal/cli/login.go
package cli

import (
	"fmt"
	"time"

	"github.com/law-makers/igfetch/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	Long: `Opens Chrome, restores any saved session and logs in with IG_USERNAME and
IG_PASSWORD when the saved session is no longer valid. The resulting session
is persisted so later commands skip the login form.

If the login triggers a verification challenge, rerun with --interactive and
complete it in the browser window. The command waits up to ten minutes.`,
	Example: `  # Log in headless with credentials from .env
  $ igfetch login

  # Show the browser and complete a verification challenge by hand
  $ igfetch login --interactive`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	mode := "headless"
	if a.Config.Interactive {
		mode = "interactive"
	}

	fmt.Printf("\n%s\n", ui.Bold("🔐 Login"))
	fmt.Printf("%s\n\n", ui.ColorDim+"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"+ui.ColorReset)
	if a.Config.Credentials.Username != "" {
		fmt.Printf("  %s %s\n", ui.ColorBold+"Account:"+ui.ColorReset, ui.ColorWhite+a.Config.Credentials.Username+ui.ColorReset)
	}
	fmt.Printf("  %s %s\n", ui.ColorBold+"Mode:"+ui.ColorReset, ui.ColorWhite+mode+ui.ColorReset)
	fmt.Printf("  %s %s\n\n", ui.ColorBold+"Session:"+ui.ColorReset, ui.ColorWhite+a.Sessions.Store().Location()+ui.ColorReset)

	if a.Config.Interactive {
		fmt.Printf("%s\n\n", ui.Info("Complete any verification prompt in the browser window."))
	}

	start := time.Now()
	if err := a.Login(cmd.Context()); err != nil {
		return err
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("Login complete")
	fmt.Printf("%s Logged in. Session persisted to %s\n\n", ui.Success("✓"), a.Sessions.Store().Location())
	return nil
}
