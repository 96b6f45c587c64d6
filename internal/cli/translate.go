package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symmetry/internal/ui"
)

var translateOut string

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate <title> <language>",
	Short: "Fetch the article on a subject in another language",
	Long: `Translate asks the backend for the article on the same subject in the
given language. The title is the subject as it appears in the source
article's URL, with spaces or underscores.

Example:
  symmetry translate "Penang laksa" fr
  symmetry translate Laksa de --out laksa.de.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&translateOut, "out", "o", "", "write the translated article to this file instead of stdout")
	addBackendFlags(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(args[0])
	language := strings.ToLower(strings.TrimSpace(args[1]))
	if title == "" || language == "" {
		return fmt.Errorf("title and language are required")
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	client, cleanup, err := resolveClient(ctx, cmd, newHost())
	defer cleanup()
	if err != nil {
		return err
	}

	result, err := client.TranslateArticle(ctx, title, language)
	if err != nil {
		return userError(ui.OpTranslation, err, client.BaseURL())
	}

	if translateOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.TranslatedArticle)
		return nil
	}
	if err := os.WriteFile(translateOut, []byte(result.TranslatedArticle), 0644); err != nil {
		return fmt.Errorf("write translation: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s (%d chars)\n", translateOut, len(result.TranslatedArticle))
	return nil
}
