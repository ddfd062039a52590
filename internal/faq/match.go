package faq

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultScoreCutoff  = 0.8
	DefaultMatchesLimit = 10
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Split lowercases s, drops ASCII punctuation and returns the words that are
// longer than two letters or made only of digits. Short words are mostly
// prepositions and particles.
func Split(s string) []string {
	s = strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)

	var words []string
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) > 2 || isDecimal(w) {
			words = append(words, w)
		}
	}
	return words
}

func isDecimal(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Ratio is the normalised indel similarity of a and b in [0, 1]: one minus
// the number of insertions and deletions turning a into b, divided by the
// total length. Two empty strings are identical.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return float64(2*lcs(ra, rb)) / float64(total)
}

// lcs is the length of the longest common subsequence, with a single
// rolling row.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prev + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prev = cur
		}
	}
	return row[len(b)]
}

// Similar reports whether two words are considered the same at cutoff.
func Similar(a, b string, cutoff float64) bool {
	r := Ratio(a, b)
	return r > 0 && r >= cutoff
}

type Match struct {
	Question string
	Count    int
}

// Matches counts, for every question, the (question word, input word) pairs
// that are Similar. Questions without a single match are dropped; the rest
// are ordered by count, highest first, keeping catalogue order on ties.
func Matches(input string, questions []string, cutoff float64) []Match {
	inputWords := Split(input)
	if len(inputWords) == 0 {
		return nil
	}
	var out []Match
	for _, q := range questions {
		n := 0
		for _, qw := range Split(q) {
			for _, iw := range inputWords {
				if Similar(qw, iw, cutoff) {
					n++
				}
			}
		}
		if n > 0 {
			out = append(out, Match{Question: q, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

var urlPattern = regexp.MustCompile(`[a-zA-Z0-9()?:/@%._+~#=]{2,256}\.[a-z]{2,6}\b[-a-zA-Z0-9@:%_+.~#?&/=]*`)

// Normalize prepares a stored answer for display: newlines become <br> and
// URLs become links.
func Normalize(answer string) string {
	answer = strings.ReplaceAll(answer, "\n", "<br>")
	return urlPattern.ReplaceAllStringFunc(answer, func(link string) string {
		return "<a href='" + link + "'>" + link + "</a>"
	})
}
