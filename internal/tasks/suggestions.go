package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
)

// titleArtistSep separates the closing quote of a title from its artist.
const titleArtistSep = `" by `

// BuildPrompt assembles the generation prompt for req.
//
// The prompt asks for one `"Song Title" by "Artist"` per line so [ParseSuggestions] can read it back.
func BuildPrompt(req models.SynthesisRequest) string {
	var b strings.Builder
	b.WriteString("I'm looking for song recommendations.")
	if len(req.Moods) > 0 {
		fmt.Fprintf(&b, " Given the mood(s) %s", strings.Join(req.Moods, ", "))
	}
	if len(req.Activities) > 0 {
		fmt.Fprintf(&b, ", for an activity like %s", strings.Join(req.Activities, ", "))
	}
	if len(req.PreferredArtists) > 0 {
		fmt.Fprintf(&b, ", and preferences for artists such as %s", strings.Join(req.PreferredArtists, ", "))
	}
	if len(req.GenreHints) > 0 {
		fmt.Fprintf(&b, ", preferably from the %s genre.", strings.Join(req.GenreHints, ", "))
	} else {
		b.WriteString(".")
	}
	if req.AttributePreference != "" {
		fmt.Fprintf(&b, " I would also like you to include artists that are only of the %s gender.", req.AttributePreference)
	}
	fmt.Fprintf(&b,
		` Please suggest specific songs in exactly this format, one per line: '"Song Title" by "Artist"'. I want exactly %d songs.`,
		req.Limit(),
	)
	return b.String()
}

// ParseSuggestions reads one title/artist pair per line of text.
//
// A line contributes a pair when it contains a double-quoted title followed by the literal " by " and a non-empty
// artist, which may itself be quoted. Leading list markers are ignored. Every other non-blank line is skipped and
// counted. The final line need not end with a newline.
func ParseSuggestions(text string) (pairs []models.SuggestionPair, skipped int) {
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		pair, ok := parseSuggestionLine(line)
		if !ok {
			skipped++
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, skipped
}

func parseSuggestionLine(line string) (models.SuggestionPair, bool) {
	open := strings.IndexByte(line, '"')
	if open < 0 {
		return models.SuggestionPair{}, false
	}

	rest := line[open+1:]
	end := strings.Index(rest, titleArtistSep)
	if end < 0 {
		return models.SuggestionPair{}, false
	}

	title := strings.TrimSpace(rest[:end])
	artist := unquote(strings.TrimSpace(rest[end+len(titleArtistSep):]))
	if title == "" || artist == "" {
		return models.SuggestionPair{}, false
	}
	return models.SuggestionPair{Title: title, ArtistName: artist}, true
}

// unquote strips one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
