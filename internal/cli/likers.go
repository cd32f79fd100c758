package cli

import (
	"fmt"

	"github.com/law-makers/igfetch/internal/config"
	"github.com/law-makers/igfetch/internal/instagram"
	"github.com/law-makers/igfetch/internal/ui"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/spf13/cobra"
)

var postLikersCmd = &cobra.Command{
	Use:   "post-likers <media-id|shortcode|url>",
	Short: "Fetch the accounts that liked a post",
	Long: `Resolves a numeric media id, a shortcode or a post URL to its media id and
pages through the accounts that liked it. The service exposes at most 25 pages
of likers, so "totalLikes" in the result may exceed the number of items.`,
	Example: `  $ igfetch post-likers https://www.instagram.com/p/C0ffee123/
  $ igfetch post-likers C0ffee123 --stdout
  $ igfetch post-likers 3141592653589793238`,
	Args: cobra.ExactArgs(1),
	RunE: runPostLikers,
}

func init() {
	rootCmd.AddCommand(postLikersCmd)
	config.RegisterFetchFlags(postLikersCmd)
}

func runPostLikers(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	progress := newPageProgress(a, "likers")
	result, err := a.PostLikers(cmd.Context(), args[0], progress.Hook())
	progress.Done()
	if err != nil {
		return err
	}

	path, err := a.Emit(instagram.Shortcode(args[0]), models.KindLikers, result)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Printf("%s %d of %d likers saved to %s\n", ui.Success("✓"), result.Available, result.TotalLikes, path)
	}
	return nil
}
