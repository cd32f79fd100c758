package cli

import (
	"fmt"

	"github.com/law-makers/igfetch/internal/config"
	"github.com/law-makers/igfetch/internal/ui"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <username>",
	Short: "Fetch the profile summary of an account",
	Long: `Fetches the profile summary of an account: id, name, bio, avatar and the
post, follower and following counts. Fields the service omits are left out of
the result rather than reported as zero.`,
	Example: `  $ igfetch profile natgeo
  $ igfetch profile natgeo --stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	config.RegisterFetchFlags(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	profile, err := a.Profile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	path, err := a.Emit(args[0], models.KindProfile, profile)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Printf("%s Profile of %s saved to %s\n", ui.Success("✓"), ui.Bold(profile.Username), path)
	}
	return nil
}
