package event_draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

type Preset string

const (
	PresetNone    Preset = "none"
	PresetDaily   Preset = "daily"
	PresetWeekly  Preset = "weekly"
	PresetMonthly Preset = "monthly"
	PresetYearly  Preset = "yearly"
	// PresetCustom marks any rule outside the fixed presets. It is edited as raw text.
	PresetCustom Preset = "custom"
)

var presetRules = map[Preset]string{
	PresetNone:    "",
	PresetDaily:   "RRULE:FREQ=DAILY",
	PresetWeekly:  "RRULE:FREQ=WEEKLY",
	PresetMonthly: "RRULE:FREQ=MONTHLY",
	PresetYearly:  "RRULE:FREQ=YEARLY",
}

var recurrenceLineNames = []string{"RRULE", "EXRULE", "RDATE", "EXDATE", "DTSTART"}

func ParsePreset(value string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := presetRules[p]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreset, value)
}

// PresetRule returns the canonical rule text of a fixed preset.
func PresetRule(p Preset) (string, error) {
	rule, ok := presetRules[p]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
	return rule, nil
}

// ClassifyRecurrence maps rule text to its preset. Text matching none of the canonical
// rules is PresetCustom.
func ClassifyRecurrence(rule string) Preset {
	normalized := normalizeRule(rule)
	for preset, canonical := range presetRules {
		if normalized == canonical {
			return preset
		}
	}
	return PresetCustom
}

// ValidateRecurrence checks that rule is an RFC 5545 recurrence with at least one RRULE
// or RDATE line. Empty text means no recurrence and is valid.
func ValidateRecurrence(rule string) error {
	normalized := normalizeRule(rule)
	if normalized == "" {
		return nil
	}
	for _, line := range strings.Split(normalized, "\n") {
		if !hasKnownName(line) {
			return fmt.Errorf("%w: unsupported line %q", ErrInvalidRecurrence, line)
		}
	}
	set, err := rrule.StrToRRuleSet(normalized)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	if set.GetRRule() == nil && len(set.GetRDate()) == 0 {
		return fmt.Errorf("%w: no RRULE or RDATE", ErrInvalidRecurrence)
	}
	return nil
}

// PreviewOccurrences lists up to n occurrences of rule starting at start.
func PreviewOccurrences(rule string, start time.Time, n int) ([]time.Time, error) {
	normalized := normalizeRule(rule)
	if normalized == "" || n <= 0 {
		return nil, nil
	}
	set, err := rrule.StrToRRuleSet(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	set.DTStart(start)

	next := set.Iterator()
	occurrences := make([]time.Time, 0, n)
	for len(occurrences) < n {
		t, ok := next()
		if !ok {
			break
		}
		occurrences = append(occurrences, t)
	}
	return occurrences, nil
}

func splitRecurrence(rule string) []string {
	normalized := normalizeRule(rule)
	if normalized == "" {
		return []string{}
	}
	return strings.Split(normalized, "\n")
}

func joinRecurrence(lines []string) string {
	return normalizeRule(strings.Join(lines, "\n"))
}

// normalizeRule trims every line, drops empty lines and upper-cases property names.
func normalizeRule(rule string) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(rule, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.IndexAny(line, ":;"); i > 0 {
			line = strings.ToUpper(line[:i]) + line[i:]
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func hasKnownName(line string) bool {
	upper := strings.ToUpper(line)
	for _, name := range recurrenceLineNames {
		if strings.HasPrefix(upper, name+":") || strings.HasPrefix(upper, name+";") {
			return true
		}
	}
	return false
}
