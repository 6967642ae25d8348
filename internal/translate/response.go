package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	codeFenceRegex = regexp.MustCompile("```(?:json)?\\s*")
	wrapperKeys    = []string{"results", "translations", "data", "items"}
)

func cleanJSONResponse(s string) string {
	s = codeFenceRegex.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// escapes backslashes that do not start a valid JSON escape, so a stray
// \N or \p from the model survives as literal text
func fixInvalidEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		switch next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			b.WriteByte('\\')
		default:
			b.WriteString("\\\\")
		}
		b.WriteByte(next)
		i++
	}

	return b.String()
}

// finds the first JSON value in text that holds translation results, either
// a bare array or an array under a wrapper key
func extractTranslationResults(text string) ([]TranslationResult, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if results, ok := resultsFrom(gjson.ParseBytes(raw)); ok {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

func resultsFrom(value gjson.Result) ([]TranslationResult, bool) {
	if value.IsArray() {
		var results []TranslationResult
		for _, elem := range value.Array() {
			index, text := elem.Get("index"), elem.Get("text")
			if !elem.IsObject() || !index.Exists() || !text.Exists() {
				return nil, false
			}
			results = append(results, TranslationResult{
				Index: int(index.Int()),
				Text:  text.String(),
			})
		}
		return results, validateResults(results)
	}

	if !value.IsObject() {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if results, ok := resultsFrom(value.Get(key)); ok {
			return results, true
		}
	}

	var found []TranslationResult
	value.ForEach(func(_, field gjson.Result) bool {
		if results, ok := resultsFrom(field); ok {
			found = results
			return false
		}
		return true
	})
	return found, found != nil
}

func validateResults(results []TranslationResult) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
