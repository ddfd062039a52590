package dialog

import "strings"

// Picker returns a uniform random index in [0, n). *math/rand.Rand
// satisfies it.
type Picker interface {
	Intn(n int) int
}

// Rule pairs the exact phrases that trigger it with the replies to pick from.
type Rule struct {
	Name     string
	Keywords []string
	Replies  []string
}

// Matcher answers small talk locally. Rules are tried in order and the first
// whose keyword set contains the normalised input wins.
type Matcher struct {
	rules []compiledRule
	pick  Picker
}

type compiledRule struct {
	name     string
	keywords map[string]struct{}
	replies  []string
}

// NewMatcher builds a matcher over rules. Keywords are normalised the same
// way as input; rules without replies are skipped.
func NewMatcher(rules []Rule, pick Picker) *Matcher {
	m := &Matcher{pick: pick}
	for _, r := range rules {
		if len(r.Replies) == 0 {
			continue
		}
		cr := compiledRule{
			name:     r.Name,
			keywords: make(map[string]struct{}, len(r.Keywords)),
			replies:  append([]string(nil), r.Replies...),
		}
		for _, k := range r.Keywords {
			cr.keywords[normalize(k)] = struct{}{}
		}
		m.rules = append(m.rules, cr)
	}
	return m
}

// NewDefaultMatcher uses DefaultRules.
func NewDefaultMatcher(pick Picker) *Matcher {
	return NewMatcher(DefaultRules, pick)
}

// Match returns a canned reply for input, or false when no rule matches.
// Only the ends of the input are trimmed and case is ignored; there is no
// substring or fuzzy matching.
func (m *Matcher) Match(input string) (string, bool) {
	reply, _, ok := m.MatchRule(input)
	return reply, ok
}

// MatchRule is Match that also reports the name of the rule that fired.
func (m *Matcher) MatchRule(input string) (reply string, rule string, ok bool) {
	key := normalize(input)
	if key == "" {
		return "", "", false
	}
	for _, r := range m.rules {
		if _, hit := r.keywords[key]; hit {
			return r.replies[m.pick.Intn(len(r.replies))], r.name, true
		}
	}
	return "", "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
