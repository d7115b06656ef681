// Package prompt builds the vision query prompt shared by all providers
// and parses model responses back into answer/confidence/reasoning.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// FallbackConfidence is assigned when a model answers in plain text
// instead of the requested JSON shape.
const FallbackConfidence = 0.5

// Build formats a natural-language query into the instruction prompt sent
// alongside the screenshot.
func Build(query string, context map[string]string) string {
	var b strings.Builder
	b.WriteString("Analyze this UI screenshot and answer the following question:\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	b.WriteString("Please provide:\n")
	b.WriteString("1. A direct answer to the question\n")
	b.WriteString("2. Your confidence level (0.0 to 1.0)\n")
	b.WriteString("3. Detailed reasoning for your assessment\n\n")
	b.WriteString("Focus on visual layout, usability, accessibility, and overall quality.\n")

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+": "+context[k])
		}
		fmt.Fprintf(&b, "\nAdditional context: %s\n", strings.Join(pairs, ", "))
	}

	b.WriteString("\nRespond in this JSON format:\n")
	b.WriteString(`{"answer": "your answer", "confidence": 0.0-1.0, "reasoning": "detailed explanation"}`)
	return b.String()
}

// Answer is the normalized model response.
type Answer struct {
	Answer     string
	Confidence float64
	Reasoning  string
	// Structured is false when the JSON shape could not be extracted and
	// the raw text was used as the answer.
	Structured bool
}

var jsonPattern = regexp.MustCompile(`\{[^{}]*"answer"[^{}]*\}`)

// Parse extracts the JSON answer object from raw model output. When no
// parseable object is present it falls back to the raw text with
// FallbackConfidence, mirroring lenient handling of models that ignore
// the response-format instruction.
func Parse(raw string) Answer {
	raw = strings.TrimSpace(raw)

	candidate := raw
	if !json.Valid([]byte(candidate)) {
		candidate = jsonPattern.FindString(raw)
	}
	if candidate != "" {
		var parsed struct {
			Answer     string  `json:"answer"`
			Confidence float64 `json:"confidence"`
			Reasoning  string  `json:"reasoning"`
		}
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil && parsed.Answer != "" {
			return Answer{
				Answer:     parsed.Answer,
				Confidence: clamp(parsed.Confidence),
				Reasoning:  parsed.Reasoning,
				Structured: true,
			}
		}
	}

	return Answer{
		Answer:     raw,
		Confidence: FallbackConfidence,
		Reasoning:  "unstructured response",
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
