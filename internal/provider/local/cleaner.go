package local

import (
	"strconv"
	"strings"
)

// Normalize turns a raw player title into a catalog query. It never fails;
// titles it cannot make sense of produce an empty CleanedText.
func Normalize(raw string) ParsedQuery {
	title := stripDirectory(raw)

	if marker, end, ok := findEpisodeMarker(title); ok {
		return ParsedQuery{
			CleanedText: cleanEpisodeTitle(title[:end]),
			Episode:     &marker,
		}
	}

	return ParsedQuery{CleanedText: cleanMovieTitle(title)}
}

// stripDirectory drops any directory prefix, for players that report paths
func stripDirectory(title string) string {
	if idx := strings.LastIndexAny(title, `/\`); idx != -1 {
		return title[idx+1:]
	}
	return title
}

// findEpisodeMarker locates the first S##E## marker and returns the offset
// just past it.
func findEpisodeMarker(title string) (EpisodeMarker, int, bool) {
	loc := seasonEpisodeRe.FindStringSubmatchIndex(title)
	if loc == nil {
		return EpisodeMarker{}, 0, false
	}

	season, err := strconv.ParseUint(title[loc[2]:loc[3]], 10, 32)
	if err != nil {
		return EpisodeMarker{}, 0, false
	}
	episode, err := strconv.ParseUint(title[loc[4]:loc[5]], 10, 32)
	if err != nil {
		return EpisodeMarker{}, 0, false
	}

	return EpisodeMarker{Season: uint(season), Episode: uint(episode)}, loc[1], true
}

// cleanEpisodeTitle cleans a title already truncated after its episode marker
func cleanEpisodeTitle(title string) string {
	// A year ends the show name
	if loc := yearRe.FindStringIndex(title); loc != nil {
		title = title[:loc[1]]
	}

	title = yearRe.ReplaceAllString(title, "")
	title = bracketSpanRe.ReplaceAllString(title, "")
	title = strings.ReplaceAll(title, ".", " ")
	title = episodeBraceRe.ReplaceAllString(title, "")
	title = strings.ReplaceAll(title, "-", "")

	return collapseSpaces(title)
}

// cleanMovieTitle strips extension, annotations, release metadata and the
// release group from a movie title
func cleanMovieTitle(title string) string {
	title = extensionRe.ReplaceAllString(title, "")
	title = bracketSpanRe.ReplaceAllString(title, "")
	title = yearTailRe.ReplaceAllString(title, "")
	title = strings.ReplaceAll(title, ".", " ")

	// All or nothing: without a hyphen the title is left alone
	title = groupPrefixRe.ReplaceAllString(title, "")

	title = movieBraceRe.ReplaceAllString(title, "")

	return collapseSpaces(title)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
