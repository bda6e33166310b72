package charts

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
)

func TestWordFrequencies(t *testing.T) {
	records := []domain.Sighting{
		{Comments: "Bright ORANGE light&#44 then a second light."},
		{Comments: "The light was orange and it hovered over the lake"},
		{Comments: ""},
		{Comments: "Witness's 3 lights; 2nd object's light faded"},
	}

	got := WordFrequencies(records, 4)

	want := []Count{
		{Label: "light", Count: 4},
		{Label: "orange", Count: 2},
		{Label: "2nd", Count: 1},
		{Label: "bright", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("word frequencies mismatch (-want +got):\n%s", diff)
	}
}

func TestWordFrequencies_DefaultLimit(t *testing.T) {
	records := make([]domain.Sighting, 0, DefaultWordLimit+10)
	for i := range DefaultWordLimit + 10 {
		records = append(records, domain.Sighting{Comments: wordN(i)})
	}

	assert.Len(t, WordFrequencies(records, 0), DefaultWordLimit)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"stopwords dropped", "it was over there", []string{}},
		{"numbers dropped", "3 objects at 10", []string{"objects"}},
		{"possessive stripped", "pilot's view", []string{"pilot", "view"}},
		{"quotes trimmed", "'craft' seen", []string{"craft", "seen"}},
		{"single letters dropped", "a v shape", []string{"shape"}},
		{"punctuation splits", "disk/saucer--silver", []string{"disk", "saucer", "silver"}},
		{"contraction stopword", "didn't move", []string{"move"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.input)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

// wordN returns a distinct lowercase word for n.
func wordN(n int) string {
	const letters = "bcdfghjklm"
	w := []byte("zz")
	for {
		w = append(w, letters[n%10])
		n /= 10
		if n == 0 {
			return string(w)
		}
	}
}
