package usecase

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls the JSON object out of an assistant reply.
// Tries the raw text first, then a fenced code block, then the
// outermost brace pair.
func extractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	if m := fencedJSONRe.FindStringSubmatch(trimmed); len(m) == 2 && json.Valid([]byte(m[1])) {
		return m[1], nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		candidate := trimmed[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", domain.WrapError(domain.ErrInvalidInput, "extract json from response", errors.New("no valid json object in assistant reply"))
}
