// Package normalize implements drug-name normalization and deduplication.
//
// Ingested data refers to the same compound under many display strings:
// "Pembrolizumab 25 MG Injection", "pembrolizumab", "PEMBROLIZUMAB 100mg/4ml".
// Normalize maps each raw string onto a canonical key, and Unique groups a
// record sequence by that key so downstream writes see one row per compound
// with every raw spelling retained as a variant.
package normalize

import (
	"regexp"
	"strings"
)

// Record is the minimal input shape for deduplication: a stable identity
// plus the raw display string it was ingested with.
type Record struct {
	ID   int64
	Name string
}

// Group is one deduplicated drug. Representative is the first record seen
// for the key; Variants holds every distinct raw string that collapsed into
// the group, in first-seen order.
type Group struct {
	Key            string
	Representative Record
	Variants       []string
}

// dosagePattern matches dosage/strength tokens such as "10 mg", "0.5ml",
// "250mcg", "100 IU", "5%", including compound forms like "100mg/4ml".
// The percent branch stands apart from the word units: \b never matches
// after "%" (a non-word rune), so a trailing boundary would make percent
// strengths unmatchable.
var dosagePattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:%|(?:mg|mcg|µg|ug|g|kg|ml|l|iu|meq)\b(?:\s*/\s*\d*(?:\.\d+)?\s*(?:mg|mcg|µg|ug|g|kg|ml|l|iu|meq)\b)?)`)

// bareNumberPattern removes leftover standalone numbers once units are gone
// ("aspirin 81" after "81 mg" lost its unit elsewhere upstream).
var bareNumberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// formulationWords are dosage-form and release-profile tokens that carry no
// identity: the same compound ships as tablet, capsule, and injection.
var formulationWords = map[string]struct{}{
	"tablet": {}, "tablets": {}, "tab": {}, "tabs": {},
	"capsule": {}, "capsules": {}, "cap": {}, "caps": {},
	"injection": {}, "injectable": {}, "infusion": {},
	"oral": {}, "topical": {}, "intravenous": {}, "subcutaneous": {},
	"solution": {}, "suspension": {}, "syrup": {}, "elixir": {},
	"cream": {}, "ointment": {}, "gel": {}, "lotion": {},
	"patch": {}, "spray": {}, "inhaler": {}, "drops": {},
	"er": {}, "xr": {}, "sr": {}, "ir": {}, "dr": {}, "odt": {},
	"extended": {}, "release": {}, "delayed": {}, "immediate": {},
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// Normalize maps a raw drug display string to its canonical dedup key.
//
// Steps, in order: case-fold, strip dosage/strength tokens, strip bare
// numbers, drop formulation and release-profile words, collapse whitespace,
// trim surrounding punctuation. If stripping leaves nothing (the name was
// entirely dosage tokens, or empty to begin with), the lowercased trimmed
// original is returned instead so no record ever maps to an empty key.
func Normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	s := dosagePattern.ReplaceAllString(lowered, " ")
	s = bareNumberPattern.ReplaceAllString(s, " ")

	// Commas and parens only ever delimit dosage/formulation clauses in
	// registry names, so they become spaces before word filtering.
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '[', ']', ';', ':':
			return ' '
		}
		return r
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		w = strings.Trim(w, ".-/")
		if w == "" {
			continue
		}
		if _, skip := formulationWords[w]; skip {
			continue
		}
		kept = append(kept, w)
	}

	normalized := whitespacePattern.ReplaceAllString(strings.Join(kept, " "), " ")
	normalized = strings.TrimSpace(normalized)

	// Fallback: never return an empty key for a non-empty name.
	if normalized == "" {
		return lowered
	}
	return normalized
}

// Unique groups records by normalized name.
//
// The first record observed for a key becomes the group's representative;
// its identity (ID and display string) is what survives into the drugs
// table. Every distinct raw string is appended to Variants in first-seen
// order, and group order follows the first occurrence of each key.
//
// Unique is idempotent: running the representatives of its output back
// through it yields the same groups in the same order, since each
// representative already normalizes to its own key.
func Unique(records []Record) []Group {
	byKey := make(map[string]int, len(records))
	groups := make([]Group, 0, len(records))

	for _, rec := range records {
		key := Normalize(rec.Name)
		if key == "" {
			continue
		}

		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(groups)
			groups = append(groups, Group{
				Key:            key,
				Representative: rec,
				Variants:       []string{rec.Name},
			})
			continue
		}

		if !containsString(groups[idx].Variants, rec.Name) {
			groups[idx].Variants = append(groups[idx].Variants, rec.Name)
		}
	}

	return groups
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
