package dialog

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zeroPicker struct{ calls int }

func (p *zeroPicker) Intn(int) int {
	p.calls++
	return 0
}

func pool(t *testing.T, name string) []string {
	t.Helper()
	for _, r := range DefaultRules {
		if r.Name == name {
			return r.Replies
		}
	}
	t.Fatalf("no rule %q", name)
	return nil
}

func TestMatchThanksIgnoresCaseAndOuterSpace(t *testing.T) {
	m := NewDefaultMatcher(rand.New(rand.NewSource(1)))
	for i := 0; i < 50; i++ {
		reply, ok := m.Match(" Спасибо ")
		require.True(t, ok)
		assert.Contains(t, pool(t, "thanks"), reply)
		assert.NotContains(t, pool(t, "greeting"), reply)
		assert.NotContains(t, pool(t, "goodbye"), reply)
	}
}

func TestMatchMisses(t *testing.T) {
	m := NewDefaultMatcher(&zeroPicker{})
	for _, in := range []string{"xyz", "спасибо большое", "большое спасибо", "добрый  день", "", "   "} {
		reply, ok := m.Match(in)
		assert.False(t, ok, in)
		assert.Empty(t, reply, in)
	}
}

func TestMatchDeterministicWithFixedPicker(t *testing.T) {
	p := &zeroPicker{}
	m := NewDefaultMatcher(p)
	first := pool(t, "greeting")[0]
	for i := 0; i < 5; i++ {
		reply, ok := m.Match("привет")
		require.True(t, ok)
		assert.Equal(t, first, reply)
	}
	assert.Equal(t, 5, p.calls)
}

func TestMatchRuleName(t *testing.T) {
	m := NewDefaultMatcher(&zeroPicker{})
	_, rule, ok := m.MatchRule("ДО СВИДАНИЯ\n")
	require.True(t, ok)
	assert.Equal(t, "goodbye", rule)
}

func TestFirstRuleWins(t *testing.T) {
	m := NewMatcher([]Rule{
		{Name: "one", Keywords: []string{"Hey"}, Replies: []string{"first"}},
		{Name: "two", Keywords: []string{"hey"}, Replies: []string{"second"}},
		{Name: "empty", Keywords: []string{"ping"}},
	}, &zeroPicker{})

	reply, ok := m.Match("HEY")
	require.True(t, ok)
	assert.Equal(t, "first", reply)

	_, ok = m.Match("ping")
	assert.False(t, ok)
}
