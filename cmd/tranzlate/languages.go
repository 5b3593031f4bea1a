package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dasmlab/tranzlate/pkg/translate"
)

var languagesBackend bool

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List selectable languages",
	Long: `Lists the language names and codes accepted by --from and --to.

Examples:
  tranzlate languages
  tranzlate languages --backend --engine libretranslate`,
	RunE: runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)

	languagesCmd.Flags().BoolVar(&languagesBackend, "backend", false, "Also query the configured backend")
}

func runLanguages(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tCODE\n")
	fmt.Fprintf(w, "%s\t%s\n", translate.AutoDetect, "auto")
	for _, name := range translate.DefaultCatalog.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, translate.DefaultCatalog[name])
	}
	w.Flush()

	if !languagesBackend {
		return nil
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	codes, err := a.translator.SupportedLanguages(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch backend languages: %w", err)
	}
	fmt.Fprintf(out, "\nBackend (%s): %s\n", a.cfg.Backend.Engine, strings.Join(codes, ", "))
	return nil
}
