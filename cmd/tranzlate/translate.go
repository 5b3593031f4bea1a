package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dasmlab/tranzlate/pkg/extract"
)

var (
	sourceLang string
	targetLang string
	inputText  string
	inputFile  string
	outputFile string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text, a text file or a PDF",
	Long: `Translates text given as an argument, with --text, on stdin, or from
a .txt or .pdf file.

Examples:
  tranzlate translate --to de "Hello world"
  tranzlate translate --from English --to German --file notes.txt
  tranzlate translate --to fr --file paper.pdf --out paper.fr.txt
  echo "Hello" | tranzlate translate --to es`,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVar(&sourceLang, "from", "", "Source language name or code (default: detect)")
	translateCmd.Flags().StringVar(&targetLang, "to", "", "Target language name or code")
	translateCmd.Flags().StringVar(&inputText, "text", "", "Text to translate")
	translateCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Text or PDF file to translate")
	translateCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Write the translation to a file instead of stdout")
	translateCmd.MarkFlagRequired("to")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	source, target, err := resolveLanguages(sourceLang, targetLang)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	var result string

	switch {
	case inputFile != "":
		kind, err := extract.KindForFilename(inputFile)
		if err != nil {
			return err
		}
		f, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		if kind == extract.KindPDF {
			result = a.pipeline.TranslatePDF(ctx, f, source, target)
		} else {
			result = a.pipeline.TranslateDocument(ctx, f, source, target)
		}
	case inputText != "" || len(args) > 0:
		text := inputText
		if text == "" {
			text = strings.Join(args, " ")
		}
		result = a.pipeline.TranslateText(ctx, text, source, target)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		result = a.pipeline.TranslateText(ctx, string(data), source, target)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(result+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
