package cli

import (
	"fmt"

	"github.com/law-makers/igfetch/internal/config"
	"github.com/law-makers/igfetch/internal/ui"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/spf13/cobra"
)

var followersCmd = &cobra.Command{
	Use:   "followers <username>",
	Short: "Fetch the followers of an account",
	Long: `Resolves the username to its account id and pages through its followers,
pausing a jittered interval between pages. The listing stops at the last page
or at --max-pages, whichever comes first.`,
	Example: `  # Save followers to data/<username>/followers/<millis>.json
  $ igfetch followers natgeo

  # Fetch at most 3 pages and print instead of saving
  $ igfetch followers natgeo --max-pages 3 --stdout`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnections(cmd, models.Followers, args[0])
	},
}

var followingsCmd = &cobra.Command{
	Use:     "followings <username>",
	Aliases: []string{"following"},
	Short:   "Fetch the accounts an account follows",
	Long: `Resolves the username to its account id and pages through the accounts it
follows, pausing a jittered interval between pages.`,
	Example: `  $ igfetch followings natgeo --page-size 24`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnections(cmd, models.Following, args[0])
	},
}

func init() {
	rootCmd.AddCommand(followersCmd)
	rootCmd.AddCommand(followingsCmd)
	config.RegisterFetchFlags(followersCmd)
	config.RegisterFetchFlags(followingsCmd)
}

func runConnections(cmd *cobra.Command, kind models.ConnectionKind, handle string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	progress := newPageProgress(a, string(kind.DataKind()))
	result, err := a.Connections(cmd.Context(), kind, handle, progress.Hook())
	progress.Done()
	if err != nil {
		return err
	}

	path, err := a.Emit(handle, kind.DataKind(), result)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Printf("%s %d %s saved to %s\n", ui.Success("✓"), result.Total, kind.DataKind(), path)
	}
	return nil
}
