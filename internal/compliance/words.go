// Package compliance checks generated campaign content for prohibited
// language and verifies logo presence on rendered assets.
package compliance

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in prohibited word lists. General covers absolute and too-good-to-be-
// true claims, health covers medical claims, legal covers regulatory and
// certification claims.
var wordLists = map[string][]string{
	"general": {
		"guaranteed", "promise", "best", "free", "unlimited", "forever",
		"cure", "miracle", "perfect", "100%", "always", "never", "every",
		"all", "none", "instantly", "immediately", "overnight",
		"risk-free", "no risk",
	},
	"health": {
		"cures", "treats", "prevents", "diagnoses", "heals", "remedy",
		"therapeutic", "medicinal", "medical", "clinical", "proven",
		"scientifically proven", "clinically proven",
	},
	"legal": {
		"patent pending", "patented", "trademark", "copyright",
		"registered", "FDA approved", "FDA", "EPA", "certified",
		"accredited", "official", "endorsed",
	},
}

// ListNames returns the built-in list names in a stable order.
func ListNames() []string {
	names := make([]string, 0, len(wordLists))
	for name := range wordLists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Words resolves the named lists into one deduplicated word set.
func Words(listNames []string, extra []string) ([]string, error) {
	seen := make(map[string]bool)
	var words []string

	add := func(w string) {
		w = strings.TrimSpace(w)
		key := strings.ToLower(w)
		if w == "" || seen[key] {
			return
		}
		seen[key] = true
		words = append(words, w)
	}

	for _, name := range listNames {
		list, ok := wordLists[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown word list %q (available: %s)", name, strings.Join(ListNames(), ", "))
		}
		for _, w := range list {
			add(w)
		}
	}
	for _, w := range extra {
		add(w)
	}

	return words, nil
}
