package textutil

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Normalize lowercases s and turns punctuation into single spaces.
func Normalize(s string) string {
	var out strings.Builder
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == ' ':
			out.WriteRune(c)
		case c > 127 && c != '\u00a0':
			out.WriteRune(c)
		default:
			out.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(out.String()), " ")
}

// BestMatch returns the index of the candidate most similar to target by
// Jaro-Winkler distance over normalized names, -1 if candidates is empty.
func BestMatch(target string, candidates []string) (index int, similarity float64) {
	index = -1
	target = Normalize(target)
	for i, c := range candidates {
		sim := matchr.JaroWinkler(target, Normalize(c), false)
		if index < 0 || sim > similarity {
			index = i
			similarity = sim
		}
	}
	return index, similarity
}
