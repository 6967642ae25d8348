package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/mgpai22/lesson/internal/caption"
)

// answers each prompt by upper-casing the input texts
type echoCompleter struct {
	mu      sync.Mutex
	prompts int
	fail    error
}

func (c *echoCompleter) Name() string { return "echo" }

func (c *echoCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts++
	c.mu.Unlock()
	if c.fail != nil {
		return "", c.fail
	}

	input := prompt[strings.Index(prompt, "Input JSON:\n")+len("Input JSON:\n"):]
	input = input[:strings.LastIndex(input, "]")+1]

	var sb strings.Builder
	sb.WriteString("```json\n[")
	for i, item := range gjson.Parse(input).Array() {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"index": %d, "text": %q}`,
			item.Get("index").Int(), strings.ToUpper(item.Get("text").String()))
	}
	sb.WriteString("]\n```")
	return sb.String(), nil
}

func items(n int) []TranslationItem {
	out := make([]TranslationItem, n)
	for i := range out {
		out[i] = TranslationItem{Index: i, Text: fmt.Sprintf("line %d", i)}
	}
	return out
}

func TestFactoryReturnsProviderTranslators(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		provider Provider
		name     string
	}{
		{ProviderGemini, "Gemini"},
		{ProviderOpenAI, "OpenAI"},
		{ProviderAnthropic, "Anthropic"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			translator, err := Factory(ctx, tt.provider, "fake-key", Options{TargetLanguage: "Chinese"})
			if err != nil {
				t.Fatalf("Factory(%s) returned error: %v", tt.provider, err)
			}
			if translator.Name() != tt.name {
				t.Errorf("expected %s, got %s", tt.name, translator.Name())
			}
			var _ ConcurrentTranslator = translator
		})
	}
}

func TestFactoryRequiresTargetLanguage(t *testing.T) {
	_, err := Factory(context.Background(), ProviderGemini, "fake-key", Options{})
	if err == nil {
		t.Error("expected error for missing target language")
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := Factory(context.Background(), Provider("unknown"), "fake-key", Options{TargetLanguage: "French"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	for _, p := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		if _, err := Factory(context.Background(), p, "", Options{TargetLanguage: "French"}); err == nil {
			t.Errorf("%s: expected error for missing API key", p)
		}
	}
}

func TestProviderKeyEnv(t *testing.T) {
	if got := ProviderAnthropic.KeyEnv(); got != "ANTHROPIC_API_KEY" {
		t.Errorf("expected ANTHROPIC_API_KEY, got %s", got)
	}
	if got := Provider("other").KeyEnv(); got != "" {
		t.Errorf("expected empty key env, got %s", got)
	}
}

func TestTranslateBatches(t *testing.T) {
	completer := &echoCompleter{}
	translator := NewLLMTranslator(completer, Options{TargetLanguage: "Chinese", BatchSize: 4})

	results, err := translator.Translate(context.Background(), items(10))
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if completer.prompts != 3 {
		t.Errorf("expected 3 batches, got %d", completer.prompts)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Text != fmt.Sprintf("LINE %d", i) {
			t.Errorf("result %d: got %+v", i, r)
		}
	}
}

func TestTranslateWithConcurrency(t *testing.T) {
	completer := &echoCompleter{}
	translator := NewLLMTranslator(completer, Options{TargetLanguage: "Chinese", BatchSize: 3})

	results, err := translator.TranslateWithConcurrency(context.Background(), items(11), 4)
	if err != nil {
		t.Fatalf("TranslateWithConcurrency failed: %v", err)
	}
	if len(results) != 11 {
		t.Fatalf("expected 11 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results out of order at %d: %+v", i, r)
		}
	}
}

func TestTranslateEmpty(t *testing.T) {
	translator := NewLLMTranslator(&echoCompleter{}, Options{TargetLanguage: "Chinese"})
	results, err := translator.Translate(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Errorf("expected no results, got %v, %v", results, err)
	}
}

func TestTranslateSurfacesProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	translator := NewLLMTranslator(&echoCompleter{fail: boom}, Options{TargetLanguage: "Chinese", BatchSize: 2})

	if _, err := translator.TranslateWithConcurrency(context.Background(), items(6), 3); !errors.Is(err, boom) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestFill(t *testing.T) {
	segments := []caption.Segment{
		{Primary: "Excuse me!", Secondary: "对不起！", Start: 0, End: 2},
		{Primary: "Yes?", Start: 2, End: 4},
		{Primary: "", Start: 4, End: 5},
		{Primary: "Is this your handbag?", Start: 5},
	}
	translator := NewLLMTranslator(&echoCompleter{}, Options{TargetLanguage: "Chinese"})

	filled, n, err := Fill(context.Background(), translator, segments, FillOptions{})
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 filled, got %d", n)
	}
	if filled[0].Secondary != "对不起！" {
		t.Errorf("existing translation should be kept, got %q", filled[0].Secondary)
	}
	if filled[1].Secondary != "YES?" || filled[3].Secondary != "IS THIS YOUR HANDBAG?" {
		t.Errorf("unexpected translations: %+v", filled)
	}
	if filled[2].Secondary != "" {
		t.Errorf("empty primary should not be translated")
	}
	if segments[1].Secondary != "" {
		t.Error("Fill must not modify its input")
	}

	overwritten, n, err := Fill(context.Background(), translator, segments, FillOptions{Overwrite: true, Concurrency: 2})
	if err != nil {
		t.Fatalf("Fill overwrite failed: %v", err)
	}
	if n != 3 || overwritten[0].Secondary != "EXCUSE ME!" {
		t.Errorf("expected 3 overwritten, got %d (%q)", n, overwritten[0].Secondary)
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	translator, err := NewOpenAITranslator(ctx, apiKey, Options{TargetLanguage: "Chinese"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	results, err := translator.Translate(ctx, []TranslationItem{
		{Index: 0, Text: "Excuse me!"},
		{Index: 1, Text: "Thank you very much."},
	})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Text == "" {
			t.Errorf("result index %d has empty text", r.Index)
		}
	}
}
