package solver

import (
	"encoding/json"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"quiz-solver/pkg/models"
)

var (
	reThink = regexp.MustCompile(`(?is)<think>.*?</think>`)
	reFence = regexp.MustCompile("(?s)^```(?:[A-Za-z0-9_-]*[ \t]*\r?\n)?(.*?)\r?\n?```$")
)

// ParseAnswer converts model output into a typed answer. It never fails:
// JSON value first, then integer, then float, then the trimmed text itself.
func ParseAnswer(raw string) models.Answer {
	text := cleanModelOutput(raw)

	if answer, ok := parseJSON(text); ok {
		return answer
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return models.IntAnswer(i)
	}
	// NaN and Inf parse as floats but cannot be encoded as JSON.
	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return models.FloatAnswer(f)
	}
	return models.StringAnswer(text)
}

func parseJSON(text string) (models.Answer, bool) {
	if text == "" {
		return models.Answer{}, false
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return models.Answer{}, false
	}
	// Reject trailing content such as `42 apples`.
	if _, err := dec.Token(); err != io.EOF {
		return models.Answer{}, false
	}

	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return models.IntAnswer(i), true
		}
		if f, err := x.Float64(); err == nil {
			return models.FloatAnswer(f), true
		}
		return models.Answer{}, false
	case bool:
		return models.BoolAnswer(x), true
	case string:
		return models.StringAnswer(x), true
	case map[string]any, []any:
		return models.Answer{Kind: models.KindObject, Value: x}, true
	default:
		// null
		return models.Answer{}, false
	}
}

// cleanModelOutput drops reasoning blocks and a fence wrapping the whole reply.
func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(reThink.ReplaceAllString(text, ""))
	if m := reFence.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}
	return cleaned
}
