package charts

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/couchcryptid/ufo-sightings-dashboard/internal/domain"
)

// DefaultWordLimit caps the word cloud when the caller does not.
const DefaultWordLimit = 200

// stopwords is the common English list word clouds drop by default.
var stopwords = toSet(`a about above after again against all also am an and any are aren't as at
be because been before being below between both but by can can't cannot com could couldn't
did didn't do does doesn't doing don't down during each else ever few for from further get
had hadn't has hasn't have haven't having he he'd he'll he's hence her here here's hers herself
him himself his how how's however http i i'd i'll i'm i've if in into is isn't it it's its
itself just k let's like me more most mustn't my myself no nor not of off on once only or
other otherwise ought our ours ourselves out over own r same shall shan't she she'd she'll
she's should shouldn't since so some such than that that's the their theirs them themselves
then there there's therefore these they they'd they'll they're they've this those through to
too under until up very was wasn't we we'd we'll we're we've were weren't what what's when
when's where where's which while who who's whom why why's with won't would wouldn't www you
you'd you'll you're you've your yours yourself yourselves`)

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// WordFrequencies counts words across the non-empty comments, most frequent
// first, ties broken alphabetically, keeping at most limit entries. Words are
// case folded; stopwords, single letters and pure numbers are dropped, and a
// trailing possessive 's is removed.
func WordFrequencies(records []domain.Sighting, limit int) []Count {
	if limit <= 0 {
		limit = DefaultWordLimit
	}

	fold := cases.Fold()
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Comments == "" {
			continue
		}
		text := fold.String(html.UnescapeString(rec.Comments))
		for _, word := range tokenize(text) {
			counts[word]++
		}
	}

	out := sortedCounts(counts)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tokenize splits folded text into countable words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	words := fields[:0]
	for _, w := range fields {
		w = strings.Trim(w, "'")
		if stopwords[w] {
			continue
		}
		w = strings.TrimSuffix(w, "'s")
		if len([]rune(w)) < 2 || isNumber(w) || stopwords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
