// Package response turns raw completion text into a structured turn result.
//
// LLM output is unreliable by nature: truncation, stray prose around the
// JSON envelope, broken quoting, fullwidth digits. A strict parse-or-fail
// policy would throw away a whole turn's narrative because of one broken
// trailing field, so parsing is a staged fallback chain: strip code fences,
// slice to the outermost braces, attempt a strict decode, and finally
// recover each field independently with regular expressions. Parse is
// total; the worst case is a low-fidelity result, never an error.
package response

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/jwebster45206/dao-engine/pkg/game"
)

const (
	// DefaultArtKeyword is the visual keyword used when none was extracted.
	DefaultArtKeyword = "mystery"

	// FallbackChoice is the single suggested action used when none were
	// recovered ("continue").
	FallbackChoice = "继续"

	// maxSalvagedNarrative caps the degraded narrative built from raw text
	// when the narrative field itself could not be recovered.
	maxSalvagedNarrative = 1000
)

// TurnResult is the parser's contract: always present, always well-formed.
// Narrative is non-empty for any non-empty input and Choices is non-nil.
type TurnResult struct {
	Narrative       string               `json:"narrative"`
	CharacterUpdate *game.CharacterDelta `json:"characterUpdate,omitempty"`
	Choices         []string             `json:"choices"`
	GameOver        bool                 `json:"gameOver"`
	EventArtKeyword string               `json:"eventArtKeyword"`
}

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?[ \t]*\n?")
	fenceCloseRe = regexp.MustCompile("\n?[ \t]*```$")

	narrativeRe = regexp.MustCompile(`"narrative"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	choicesRe   = regexp.MustCompile(`"choices"\s*:\s*\[([^\]]*)\]`)
	gameOverRe  = regexp.MustCompile(`(?i)"gameover"\s*:\s*true`)
	artRe       = regexp.MustCompile(`"eventArtKeyword"\s*:\s*"([^"\n]*)"`)
	keyFragRe   = regexp.MustCompile(`"\w+"\s*:`)
)

// numericFields is the closed set of numeric delta fields recovered by
// name. Absent fields stay nil, meaning "unchanged".
var numericFields = []string{
	"health", "maxHealth",
	"soul", "maxSoul",
	"cultivation", "maxCultivation",
	"spiritStones",
}

// Parse converts raw completion text into a TurnResult. It never fails.
func Parse(raw string) *TurnResult {
	content := stripFences(strings.TrimSpace(raw))

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	hasEnvelope := first != -1 && last > first

	if hasEnvelope {
		// Slice to the outermost braces, discarding any preamble or
		// postamble prose the model emitted around the envelope.
		span := content[first : last+1]
		if res, err := decodeStrict(span); err == nil {
			return res
		}
	}
	// Field salvage runs over the full fence-stripped text, not just the
	// brace span: a truncated or mis-nested envelope often leaves fields
	// like narrative outside the braces that survived.
	return salvage(raw, content, hasEnvelope)
}

// stripFences removes markdown code fence framing the model was told not
// to emit but emits anyway.
func stripFences(s string) string {
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// decodeStrict attempts a full decode of the braced span. The wire struct
// already tolerates the generator's usual shape drifts (object list
// elements, float or quoted numbers) via the flexible types in pkg/game.
func decodeStrict(span string) (*TurnResult, error) {
	var wire struct {
		Narrative       string               `json:"narrative"`
		CharacterUpdate *game.CharacterDelta `json:"characterUpdate"`
		Choices         []game.FlexName      `json:"choices"`
		GameOver        bool                 `json:"gameOver"`
		EventArtKeyword string               `json:"eventArtKeyword"`
	}
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return nil, err
	}
	if wire.Narrative == "" {
		// A braced span without a narrative is not the turn envelope; it
		// is usually a nested object (the characterUpdate of a reply whose
		// outer braces were dropped). Reject so salvage sees the full text.
		return nil, fmt.Errorf("no narrative in decoded span")
	}
	res := &TurnResult{
		Narrative:       wire.Narrative,
		CharacterUpdate: wire.CharacterUpdate,
		Choices:         game.Names(wire.Choices),
		GameOver:        wire.GameOver,
		EventArtKeyword: wire.EventArtKeyword,
	}
	if res.Choices == nil {
		res.Choices = []string{}
	}
	if res.EventArtKeyword == "" {
		res.EventArtKeyword = DefaultArtKeyword
	}
	return res, nil
}

// salvage recovers fields independently from malformed output. One broken
// field never suppresses the others. content is the fence-stripped text;
// hasEnvelope records whether a brace pair was ever found in it.
func salvage(raw, content string, hasEnvelope bool) *TurnResult {
	res := &TurnResult{
		Choices:         []string{},
		EventArtKeyword: DefaultArtKeyword,
	}

	if m := narrativeRe.FindStringSubmatch(content); m != nil && m[1] != "" {
		res.Narrative = unescape(m[1])
	} else if hasEnvelope {
		// Degraded but non-empty: show the raw text minus the key noise.
		res.Narrative = truncateRunes(keyFragRe.ReplaceAllString(raw, ""), maxSalvagedNarrative) + "..."
	} else {
		// No envelope was ever found; the whole reply is the story.
		res.Narrative = raw
	}

	res.Choices = salvageChoices(content)
	res.GameOver = gameOverRe.MatchString(content)

	if m := artRe.FindStringSubmatch(content); m != nil && strings.TrimSpace(m[1]) != "" {
		res.EventArtKeyword = strings.TrimSpace(m[1])
	}

	// Numeric fields are matched on a width-narrowed copy so fullwidth
	// digits (１５０) count as digits.
	narrowed := width.Narrow.String(content)
	delta := &game.CharacterDelta{}
	for _, field := range numericFields {
		if v, ok := extractInt(narrowed, field); ok {
			setNumericField(delta, field, v)
		}
	}
	for _, name := range game.AttributeNames {
		if v, ok := extractInt(narrowed, name); ok {
			if delta.Attributes == nil {
				delta.Attributes = make(map[string]game.FlexInt)
			}
			delta.Attributes[name] = game.FlexInt(v)
		}
	}
	if !delta.IsEmpty() {
		res.CharacterUpdate = delta
	}

	return res
}

// salvageChoices recovers the suggested action list: decode the bracketed
// span as a JSON list if possible, otherwise split on commas and strip
// quotes, otherwise fall back to a single "continue" choice.
func salvageChoices(content string) []string {
	m := choicesRe.FindStringSubmatch(content)
	if m == nil {
		return []string{FallbackChoice}
	}

	var names []game.FlexName
	if err := json.Unmarshal([]byte("["+m[1]+"]"), &names); err == nil {
		if out := game.Names(names); len(out) > 0 {
			return out
		}
		return []string{}
	}

	out := make([]string, 0)
	for _, part := range strings.Split(m[1], ",") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// extractInt matches `"<key>": <digits>` and parses the digits.
func extractInt(content, key string) (int, bool) {
	re := regexp.MustCompile(fmt.Sprintf(`"%s"\s*:\s*(\d+)`, regexp.QuoteMeta(key)))
	m := re.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

func setNumericField(delta *game.CharacterDelta, field string, v int) {
	fv := game.FlexInt(v)
	switch field {
	case "health":
		delta.Health = &fv
	case "maxHealth":
		delta.MaxHealth = &fv
	case "soul":
		delta.Soul = &fv
	case "maxSoul":
		delta.MaxSoul = &fv
	case "cultivation":
		delta.Cultivation = &fv
	case "maxCultivation":
		delta.MaxCultivation = &fv
	case "spiritStones":
		delta.SpiritStones = &fv
	}
}

// unescape undoes the JSON string escapes the narrative regex preserved.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
