package tasks

import (
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
)

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantPairs   []models.SuggestionPair
		wantSkipped int
	}{
		{
			name: "quoted title and artist",
			text: "\"Dreams\" by \"Fleetwood Mac\"\n\"Heroes\" by \"David Bowie\"\n",
			wantPairs: []models.SuggestionPair{
				{Title: "Dreams", ArtistName: "Fleetwood Mac"},
				{Title: "Heroes", ArtistName: "David Bowie"},
			},
		},
		{
			name:      "bare artist",
			text:      "\"Dreams\" by Fleetwood Mac\n",
			wantPairs: []models.SuggestionPair{{Title: "Dreams", ArtistName: "Fleetwood Mac"}},
		},
		{
			name:      "numbered list",
			text:      "1. \"Dreams\" by \"Fleetwood Mac\"\n2) \"Heroes\" by \"David Bowie\"",
			wantPairs: []models.SuggestionPair{{Title: "Dreams", ArtistName: "Fleetwood Mac"}, {Title: "Heroes", ArtistName: "David Bowie"}},
		},
		{
			name:      "last line without newline",
			text:      "\"Dreams\" by \"Fleetwood Mac\"",
			wantPairs: []models.SuggestionPair{{Title: "Dreams", ArtistName: "Fleetwood Mac"}},
		},
		{
			name:        "malformed lines skipped",
			text:        "Here are some songs:\n\"Dreams\" by \"Fleetwood Mac\"\nHeroes - David Bowie\n\"Untitled\" by\n",
			wantPairs:   []models.SuggestionPair{{Title: "Dreams", ArtistName: "Fleetwood Mac"}},
			wantSkipped: 3,
		},
		{
			name:      "blank lines ignored",
			text:      "\n\n  \"Dreams\" by \"Fleetwood Mac\"  \n\n",
			wantPairs: []models.SuggestionPair{{Title: "Dreams", ArtistName: "Fleetwood Mac"}},
		},
		{
			name:      "title containing by",
			text:      "\"Stand by Me\" by \"Ben E. King\"\n",
			wantPairs: []models.SuggestionPair{{Title: "Stand by Me", ArtistName: "Ben E. King"}},
		},
		{
			name: "empty text",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, skipped := ParseSuggestions(tt.text)
			if !slices.Equal(pairs, tt.wantPairs) {
				t.Errorf("ParseSuggestions() pairs = %+v, want %+v", pairs, tt.wantPairs)
			}
			if skipped != tt.wantSkipped {
				t.Errorf("ParseSuggestions() skipped = %d, want %d", skipped, tt.wantSkipped)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Run("includes every hint", func(t *testing.T) {
		prompt := BuildPrompt(models.SynthesisRequest{
			Moods:               []string{"happy", "calm"},
			Activities:          []string{"running"},
			PreferredArtists:    []string{"Bonobo"},
			GenreHints:          []string{"electronic"},
			AttributePreference: "female",
			SongCount:           7,
		})

		for _, want := range []string{"happy, calm", "running", "Bonobo", "electronic", "female", "exactly 7 songs", `"Song Title" by "Artist"`} {
			if !strings.Contains(prompt, want) {
				t.Errorf("BuildPrompt() missing %q in %q", want, prompt)
			}
		}
	})

	t.Run("defaults song count", func(t *testing.T) {
		prompt := BuildPrompt(models.SynthesisRequest{Moods: []string{"sad"}})
		if !strings.Contains(prompt, "exactly 10 songs") {
			t.Errorf("BuildPrompt() = %q, want default count", prompt)
		}
		if strings.Contains(prompt, "gender") {
			t.Errorf("BuildPrompt() mentions attribute without a preference: %q", prompt)
		}
	})
}
