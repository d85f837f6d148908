package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	amountNoise     = regexp.MustCompile(`[$,\s]`)
	leadingNumber   = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?`)
	digitRun        = regexp.MustCompile(`\d+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	invalidKeyChars = regexp.MustCompile(`[^a-z0-9_]`)
	benefitPattern  = regexp.MustCompile(`(?i)[+-]?\d+(?:\.\d+)?\s*(?:pbs|puntos|%|porcentaje)?`)

	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// ParseAmount converts scraped amount text to pesos. "$20M" is twenty million,
// "$1.5K" is fifteen hundred; dollar signs, commas and whitespace are noise.
// Returns nil when no number can be read.
func ParseAmount(text string) *float64 {
	if text == "" {
		return nil
	}

	cleaned := amountNoise.ReplaceAllString(text, "")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(cleaned, "M"):
		cleaned = strings.TrimSuffix(cleaned, "M")
		multiplier = 1_000_000
	case strings.HasSuffix(cleaned, "K"):
		cleaned = strings.TrimSuffix(cleaned, "K")
		multiplier = 1_000
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}

	value *= multiplier
	return &value
}

// ParseRate converts scraped rate text like "6.50%" or "6.5 E.A." to a
// percentage. Returns nil when no leading number is present.
func ParseRate(text string) *float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "%", ""))
	if cleaned == "" {
		return nil
	}

	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return nil
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}

	return &value
}

// ParseTerm converts scraped term text to months. The first digit run is the
// number; a year word multiplies it by 12, otherwise months are assumed.
// Returns nil when no number is present.
func ParseTerm(text string) *int {
	match := digitRun.FindString(text)
	if match == "" {
		return nil
	}

	value, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}

	if strings.Contains(strings.ToLower(text), "año") {
		value *= 12
	}

	return &value
}

// NormalizeKey builds a stable lookup key from display text: lowercase, strip
// diacritics, whitespace runs become underscores, everything else outside
// [a-z0-9_] is dropped.
func NormalizeKey(text string) string {
	lowered := strings.ToLower(text)

	stripped, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		stripped = lowered
	}

	key := whitespaceRuns.ReplaceAllString(stripped, "_")
	return invalidKeyChars.ReplaceAllString(key, "")
}

// ExtractBenefitValue pulls the numeric magnitude, with its unit when one
// follows, out of a benefit description, e.g. "+200 pbs con nómina" yields
// "+200 pbs". Returns nil when no number is found.
func ExtractBenefitValue(text string) *string {
	match := benefitPattern.FindString(text)
	if match == "" {
		return nil
	}

	value := strings.TrimSpace(match)
	return &value
}
