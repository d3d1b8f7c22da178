package challenge

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/trivia-rush/server/internal/gemini"
)

// decodeCandidates pulls the first JSON array out of raw model output and
// splits it into untyped elements. A missing or unparseable array is an error
// for the caller to map onto its fallback policy.
func decodeCandidates(raw string) ([]json.RawMessage, error) {
	payload := gemini.ExtractJSONArray(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON array in model output")
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("parse candidate array: %w", err)
	}
	return items, nil
}

// validateAndFix keeps structurally sound candidates and repairs the two
// recoverable fields: a missing category defaults, an unknown difficulty
// coerces to medium. Everything else rejects the candidate outright.
func validateAndFix(items []json.RawMessage) []Question {
	valid := make([]Question, 0, len(items))
	for _, item := range items {
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}

		text, ok := obj["question"].(string)
		if !ok || len(text) < 3 {
			continue
		}

		category, _ := obj["category"].(string)
		if category == "" {
			category = DefaultCategory
		}

		difficulty, _ := obj["difficulty"].(string)
		switch difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			difficulty = DifficultyMedium
		}

		rawOptions, ok := obj["options"].([]interface{})
		if !ok || len(rawOptions) < 2 || len(rawOptions) > 3 {
			continue
		}
		options := make([]string, 0, len(rawOptions))
		broken := false
		for _, ro := range rawOptions {
			s, ok := ro.(string)
			if !ok || strings.TrimSpace(s) == "" {
				broken = true
				break
			}
			options = append(options, s)
		}
		if broken {
			continue
		}

		idx, ok := obj["correctIndex"].(float64)
		if !ok || idx != math.Trunc(idx) || idx < 0 || int(idx) >= len(options) {
			continue
		}

		valid = append(valid, Question{
			Text:         text,
			Options:      options,
			CorrectIndex: int(idx),
			Category:     category,
			Difficulty:   difficulty,
		})
	}
	return valid
}
