package service

import (
	"slices"
	"strings"

	"github.com/and161185/intakedesk/internal/model"
)

// Tokenize derives search tokens from every field and equipment value of r:
// lower-cased, split on whitespace, de-duplicated in first-seen order.
// Keys are visited in sorted order so the result is deterministic.
func Tokenize(r model.Record) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(v string) {
		for _, tok := range strings.Fields(strings.ToLower(v)) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	for _, k := range sortedKeys(r.Fields) {
		add(r.Fields[k])
	}
	for _, door := range r.Equipment {
		for _, k := range sortedKeys(door) {
			add(door[k])
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NormalizeTerm turns user search input into the token it is matched against.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
