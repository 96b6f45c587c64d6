package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symmetry/internal/model"
	"github.com/ppiankov/symmetry/internal/ui"
)

var (
	fetchOut  string
	fetchJSON bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a Wikipedia article through the backend",
	Long: `Fetch asks the backend for the plain text of a Wikipedia article and
the languages it is available in.

Example:
  symmetry fetch https://en.wikipedia.org/wiki/Laksa
  symmetry fetch https://en.wikipedia.org/wiki/Laksa --out laksa.txt
  symmetry fetch https://fr.wikipedia.org/wiki/Laksa --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "write the article text to this file instead of stdout")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print the backend answer as JSON")
	addBackendFlags(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	sourceURL := strings.TrimSpace(args[0])
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	h := newHost()
	client, cleanup, err := resolveClient(ctx, cmd, h)
	defer cleanup()
	if err != nil {
		return err
	}

	article, err := client.FetchArticle(ctx, sourceURL)
	if err != nil {
		return userError(ui.OpArticleFetch, err, client.BaseURL())
	}

	if fetchJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(article)
	}

	if fetchOut != "" {
		if err := os.WriteFile(fetchOut, []byte(article.SourceArticle), 0644); err != nil {
			return fmt.Errorf("write article: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s (%d chars)\n", fetchOut, len(article.SourceArticle))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), article.SourceArticle)
	}

	fmt.Fprintf(os.Stderr, "Source language: %s\n", model.LanguageFromURL(sourceURL))
	fmt.Fprintf(os.Stderr, "Available in:    %s\n", strings.Join(article.ArticleLanguages, ", "))
	return nil
}
