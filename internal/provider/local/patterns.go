package local

import (
	"regexp"
)

// Pattern compilation for player title parsing
var (
	// Episode marker, exactly two digits for both season and episode
	seasonEpisodeRe = regexp.MustCompile(`S(\d{2})E(\d{2})`)

	// Four digit runs are treated as release years
	yearRe = regexp.MustCompile(`\d{4}`)

	// Bracketed or parenthesized annotations, non-greedy
	bracketSpanRe = regexp.MustCompile(`[\[\(].*?[\]\)]`)

	// Stray characters left behind by unbalanced annotations
	episodeBraceRe = regexp.MustCompile(`[{}()]`)
	movieBraceRe   = regexp.MustCompile(`[\[\](){}]`)

	// File extension at the end of a title
	extensionRe = regexp.MustCompile(`\.[a-zA-Z0-9]+$`)

	// A dotted year and everything after it is release metadata
	yearTailRe = regexp.MustCompile(`\.\d{4}.*`)

	// Release group prefix, greedy through the last hyphen
	groupPrefixRe = regexp.MustCompile(`.*-\s*`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)
