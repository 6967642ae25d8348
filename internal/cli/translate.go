package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [caption_file | book/lesson]",
	Short: "Fill missing caption translations using AI",
	Long: `Translate the primary text of each caption segment and store the result
as its secondary text, producing a bilingual LRC file.

Segments that already carry a translation are kept unless --overwrite
is given. Provider, model and languages default to the config file.

Examples:
  lesson translate NCE1/001
  lesson translate lessons/001.lrc --target-language japanese
  lesson translate NCE1/001 --provider anthropic --overwrite -o 001.zh.lrc`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language (default from config)")
	translateCmd.Flags().
		StringP("language", "l", "", "Language of the primary text (default from config)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		String("provider", "", "Translation provider: gemini, openai or anthropic (default from config)")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers (default from config)")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of caption lines per API request (default 50)")
	translateCmd.Flags().
		Bool("overwrite", false, "Replace existing translations")
	translateCmd.Flags().
		String("prompt", "", "Additional instructions for the model")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tc := cfg.Translation

	stringFlag(cmd, "target-language", &tc.TargetLanguage)
	stringFlag(cmd, "language", &tc.InputLanguage)
	stringFlag(cmd, "model", &tc.Model)
	stringFlag(cmd, "provider", &tc.Provider)
	if v, _ := cmd.Flags().GetInt("concurrency"); v != 0 {
		tc.Concurrency = v
	}
	if v, _ := cmd.Flags().GetInt("batch-size"); v != 0 {
		tc.BatchSize = v
	}
	apiKey, _ := cmd.Flags().GetString("api-key")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	prompt, _ := cmd.Flags().GetString("prompt")
	outputPath, _ := cmd.Flags().GetString("output")

	if tc.TargetLanguage == "" {
		return fmt.Errorf("target language is required")
	}
	if tc.InputLanguage != "" &&
		strings.EqualFold(strings.TrimSpace(tc.InputLanguage), strings.TrimSpace(tc.TargetLanguage)) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			tc.InputLanguage,
			tc.TargetLanguage,
		)
	}
	if tc.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", tc.Concurrency)
	}
	if tc.BatchSize < 0 {
		return fmt.Errorf("batch-size must be positive, got %d", tc.BatchSize)
	}

	provider := translate.Provider(strings.ToLower(tc.Provider))
	if apiKey == "" {
		apiKey = os.Getenv(provider.KeyEnv())
	}
	if apiKey == "" {
		envVar := provider.KeyEnv()
		if envVar == "" {
			return fmt.Errorf("unsupported translation provider: %s", provider)
		}
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			envVar,
		)
	}

	t, err := resolveTarget(ctx, args[0])
	if err != nil {
		return err
	}
	if t.Index.Len() == 0 {
		return fmt.Errorf("%s contains no timed lines", t.Name())
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("%s.%s.lrc", t.OutputBase(), strings.ToLower(strings.ReplaceAll(tc.TargetLanguage, " ", "-")))
	}

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  tc.InputLanguage,
		TargetLanguage: tc.TargetLanguage,
		Model:          tc.Model,
		Prompt:         prompt,
		BatchSize:      tc.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating captions",
		"source", t.Name(),
		"output", outputPath,
		"provider", translator.Name(),
		"target_language", tc.TargetLanguage,
		"segments", t.Index.Len(),
		"overwrite", overwrite,
	)

	segments, filled, err := translate.Fill(ctx, translator, t.Index.Segments(), translate.FillOptions{
		Overwrite:   overwrite,
		Concurrency: tc.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	doc := &caption.Document{Segments: segments, Metadata: t.Index.Metadata()}
	writer := &caption.LRCWriter{Offset: cfg.Offset}
	if err := writer.Write(doc, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Captions translated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Segments: %d\n", len(segments))
	fmt.Fprintf(out, "  Translated: %d\n", filled)
	fmt.Fprintf(out, "  Target language: %s\n", tc.TargetLanguage)
	return nil
}

// overrides dst with a flag value the user actually set
func stringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}
