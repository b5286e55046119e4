package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/songzhibin97/kolwatch/internal/models"
)

var (
	quoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
		"‘", "'", "’", "'",
	)
	lineBreaks     = regexp.MustCompile(`[\r\n]+`)
	trailingCommas = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseExtraction salvages the first JSON object from free-form model output.
func ParseExtraction(raw string) (*Extraction, error) {
	span, ok := firstObject(quoteReplacer.Replace(raw))
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", models.ErrMalformedModelOutput)
	}

	span = lineBreaks.ReplaceAllString(span, " ")
	span = trailingCommas.ReplaceAllString(span, "$1")

	var fields struct {
		Token    *string `json:"token"`
		Summary  *string `json:"summary"`
		Contract *string `json:"contract"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(span)), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedModelOutput, err)
	}
	if fields.Token == nil && fields.Contract == nil {
		return nil, fmt.Errorf("%w: missing token and contract keys", models.ErrMalformedModelOutput)
	}

	deref := func(s *string) string {
		if s == nil {
			return models.Sentinel
		}
		return strings.TrimSpace(*s)
	}

	return &Extraction{
		Token:    deref(fields.Token),
		Summary:  deref(fields.Summary),
		Contract: deref(fields.Contract),
	}, nil
}

// firstObject returns the first balanced {...} span, ignoring braces inside string literals.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
