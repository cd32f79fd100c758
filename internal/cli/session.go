// internal/cli/session.go
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/igfetch/internal/instagram"
	"github.com/law-makers/igfetch/internal/session"
	"github.com/law-makers/igfetch/internal/ui"
	"github.com/spf13/cobra"
)

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the saved login session",
	Long: `Shows or deletes the persisted session snapshot.

The snapshot holds the cookies and local storage of the logged-in browser and
lives in a file (default) or in your OS keyring with --store keyring.`,
	Example: `  # Show whether a session is saved and when its cookies expire
  $ igfetch session status

  # Forget the saved session
  $ igfetch session clear`,
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved session",
	Args:  cobra.NoArgs,
	RunE:  runSessionStatus,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved session",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	return describeSnapshot(os.Stdout, a.Sessions.Store(), time.Now())
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	store := a.Sessions.Store()
	if !store.Exists() {
		fmt.Println("\nNo saved session.")
		return nil
	}
	if err := store.Delete(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Printf("%s Session removed from %s\n", ui.Success("✓"), store.Location())
	return nil
}

// describeSnapshot prints presence, cookie count and expiry window
func describeSnapshot(w io.Writer, store session.Store, now time.Time) error {
	fmt.Fprintf(w, "\n📋 Session\n")
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(w, "   Store:   %s\n", store.Location())

	snap, err := store.Load()
	if errors.Is(err, session.ErrNoSnapshot) {
		fmt.Fprintf(w, "   Status:  %s\n\n", ui.Info("none"))
		fmt.Fprintln(w, "Create one with:")
		fmt.Fprintln(w, "  igfetch login")
		fmt.Fprintln(w)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	fmt.Fprintf(w, "   Status:  %s\n", ui.Success("saved"))
	fmt.Fprintf(w, "   Cookies: %d\n", len(snap.Cookies))
	if id, ok := snap.Cookie(instagram.SelfIDCookie); ok {
		fmt.Fprintf(w, "   User id: %s\n", id.Value)
	}
	fmt.Fprintf(w, "   Storage: %d entries\n", len(snap.LocalStorage(instagram.BaseURL)))

	earliest, latest := snap.ExpiryRange()
	if earliest.IsZero() {
		fmt.Fprintf(w, "   Expires: session cookies only\n")
	} else {
		fmt.Fprintf(w, "   Expires: %s to %s\n",
			earliest.Format("2006-01-02 15:04:05"),
			latest.Format("2006-01-02 15:04:05"))
		if earliest.Before(now) {
			fmt.Fprintf(w, "   %s\n", ui.Info("Some cookies have expired; a fresh login may be needed."))
		}
	}
	fmt.Fprintln(w)
	return nil
}
